package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/repository"
)

var orderCols = []string{
	"id", "ref", "session_id", "customer_name", "phone", "items", "total",
	"token", "status", "paid", "created_at", "approved_at", "paid_at", "cooking_at", "completed_at",
}

var sessionCols = []string{
	"id", "label", "last_token_issued", "current_token", "last_called_at", "created_at",
}

func newIssuer(t *testing.T) (*Issuer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewIssuer(db, repository.NewOrderRepo(db), repository.NewSessionRepo(db)), mock
}

// orderRow builds a scannable row for an order with no token and no
// transition timestamps yet.
func orderRow(id, sessionID uint64, status model.Status, paid bool) *sqlmock.Rows {
	return sqlmock.NewRows(orderCols).AddRow(
		id, "ref-abc", sessionID, "Aigerim", "+7700", []byte(`[{"name":"Plov","quantity":1,"price":1800}]`),
		1800.0, nil, string(status), paid, time.Now(), nil, nil, nil, nil)
}

func sessionRow(id uint64, lastIssued, current int64) *sqlmock.Rows {
	return sqlmock.NewRows(sessionCols).AddRow(id, "Lunch", lastIssued, current, nil, time.Now())
}

func TestIssueTokenAssignsNextNumber(t *testing.T) {
	iss, mock := newIssuer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(orderRow(42, 1, model.StatusPending, false))
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 7, 3))
	mock.ExpectExec(`UPDATE sessions SET last_token_issued = \? WHERE id = \?`).
		WithArgs(int64(8), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET token = \?, status = \?, approved_at = \? WHERE id = \? AND status = 'pending'`).
		WithArgs(int64(8), "approved", sqlmock.AnyArg(), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, issued, err := iss.IssueToken(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, issued)
	require.NotNil(t, o.Token)
	assert.Equal(t, int64(8), *o.Token)
	assert.Equal(t, model.StatusApproved, o.Status)
	require.NotNil(t, o.ApprovedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueTokenPrepaidGoesStraightToPaid(t *testing.T) {
	iss, mock := newIssuer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(orderRow(5, 2, model.StatusPending, true))
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(2)).
		WillReturnRows(sessionRow(2, 0, 0))
	mock.ExpectExec(`UPDATE sessions SET last_token_issued = \? WHERE id = \?`).
		WithArgs(int64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET token = \?, status = \?, approved_at = \?`).
		WithArgs(int64(1), "paid", sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, issued, err := iss.IssueToken(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, model.StatusPaid, o.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueTokenRacingRepeatIsNoOp(t *testing.T) {
	iss, mock := newIssuer(t)

	// A second approve finds the order already approved under the row
	// lock: it must roll back without ever touching the counter.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(orderRow(42, 1, model.StatusApproved, false))
	mock.ExpectRollback()

	o, issued, err := iss.IssueToken(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.False(t, issued)
	assert.Equal(t, model.StatusApproved, o.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueTokenWrongSession(t *testing.T) {
	iss, mock := newIssuer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(orderRow(42, 9, model.StatusPending, false))
	mock.ExpectRollback()

	_, issued, err := iss.IssueToken(context.Background(), 1, 42)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
	assert.False(t, issued)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceWalkInSharesSessionCounter(t *testing.T) {
	iss, mock := newIssuer(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 12, 10))
	mock.ExpectExec(`UPDATE sessions SET last_token_issued = \? WHERE id = \?`).
		WithArgs(int64(13), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectCommit()

	items := []model.OrderItem{{Name: "Tea", Quantity: 2, Price: 250}}
	o, err := iss.PlaceWalkIn(context.Background(), 1, "Walk-in", "", items)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), o.ID)
	require.NotNil(t, o.Token)
	assert.Equal(t, int64(13), *o.Token)
	assert.Equal(t, model.StatusPaid, o.Status)
	assert.True(t, o.Paid)
	assert.Equal(t, 500.0, o.Total)
	assert.NotEmpty(t, o.Ref)

	require.NoError(t, mock.ExpectationsWereMet())
}
