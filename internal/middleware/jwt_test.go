package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canteenhq/order-desk/internal/utils"
)

const testSecret = "test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthAcceptsSignedToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "STAFF", 5)
	require.NoError(t, err)

	rec, c := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "STAFF", c.Get("role"))
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, "STAFF", 5)
	require.NoError(t, err)

	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsUnsignedToken(t *testing.T) {
	// alg=none must never pass, regardless of claims.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 1, "role": "OWNER"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    any
		allowed []string
		want    int
	}{
		{"staff on staff route", "STAFF", []string{"STAFF", "OWNER"}, http.StatusOK},
		{"owner on owner route", "OWNER", []string{"OWNER"}, http.StatusOK},
		{"staff on owner route", "STAFF", []string{"OWNER"}, http.StatusForbidden},
		{"missing role", nil, []string{"STAFF"}, http.StatusForbidden},
		{"non-string role", 42, []string{"STAFF"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}
			h := RequireRole(tt.allowed...)(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})
			require.NoError(t, h(c))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
