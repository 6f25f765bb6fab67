package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

// Validation runs before anything touches the database, so a zero
// handler is enough here.
func TestPlaceOrderValidation(t *testing.T) {
	h := &PublicHandler{}

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"session_id":`},
		{"missing session", `{"customer_name":"A","items":[{"name":"Plov","quantity":1,"price":1800}]}`},
		{"missing name", `{"session_id":1,"items":[{"name":"Plov","quantity":1,"price":1800}]}`},
		{"blank name", `{"session_id":1,"customer_name":"   ","items":[{"name":"Plov","quantity":1,"price":1800}]}`},
		{"no items", `{"session_id":1,"customer_name":"A","items":[]}`},
		{"zero quantity", `{"session_id":1,"customer_name":"A","items":[{"name":"Plov","quantity":0,"price":1800}]}`},
		{"negative price", `{"session_id":1,"customer_name":"A","items":[{"name":"Plov","quantity":1,"price":-5}]}`},
		{"unnamed item", `{"session_id":1,"customer_name":"A","items":[{"name":" ","quantity":1,"price":5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.PlaceOrder, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTrackOrderBlankRef(t *testing.T) {
	h := &PublicHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("ref")
	c.SetParamValues("  ")
	require.NoError(t, h.TrackOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
