package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/queue"
	"github.com/canteenhq/order-desk/internal/repository"
)

type kitchenStub struct {
	events []queue.KitchenTicketEvent
}

func (k *kitchenStub) PublishTicket(_ context.Context, ev queue.KitchenTicketEvent) error {
	k.events = append(k.events, ev)
	return nil
}

type feedStub struct {
	orders  int
	serving int
}

func (f *feedStub) OrderChanged(context.Context, uint64)   { f.orders++ }
func (f *feedStub) ServingChanged(context.Context, uint64) { f.serving++ }

func newWorkflow(t *testing.T) (*Workflow, sqlmock.Sqlmock, *kitchenStub, *feedStub) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	orders := repository.NewOrderRepo(db)
	sessions := repository.NewSessionRepo(db)
	kitchen := &kitchenStub{}
	feed := &feedStub{}
	wf := NewWorkflow(db, orders, sessions, NewIssuer(db, orders, sessions), kitchen, feed)
	return wf, mock, kitchen, feed
}

// tokenRow is orderRow with a token already assigned.
func tokenRow(id, sessionID uint64, token int64, status model.Status, paid bool) *sqlmock.Rows {
	return sqlmock.NewRows(orderCols).AddRow(
		id, "ref-abc", sessionID, "Aigerim", "+7700", []byte(`[{"name":"Plov","quantity":1,"price":1800}]`),
		1800.0, token, string(status), paid, time.Now(), time.Now(), nil, nil, nil)
}

func TestMarkPaidAlreadyPaidIsIdempotent(t *testing.T) {
	wf, mock, kitchen, feed := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(tokenRow(42, 1, 8, model.StatusPaid, true))
	mock.ExpectRollback()

	o, changed, err := wf.MarkPaid(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, o.Paid)
	assert.Empty(t, kitchen.events, "repeat payment must not re-print a ticket")
	assert.Zero(t, feed.orders)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidApprovedOrder(t *testing.T) {
	wf, mock, kitchen, feed := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(tokenRow(42, 1, 8, model.StatusApproved, false))
	mock.ExpectExec(`UPDATE orders SET paid = TRUE, status = \?, paid_at = \? WHERE id = \?`).
		WithArgs("paid", sqlmock.AnyArg(), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// Kitchen routing reads the session label after commit.
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 8, 3))

	o, changed, err := wf.MarkPaid(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusPaid, o.Status)
	assert.True(t, o.Paid)
	require.NotNil(t, o.PaidAt)

	require.Len(t, kitchen.events, 1)
	assert.Equal(t, int64(8), kitchen.events[0].Token)
	assert.Equal(t, "Lunch", kitchen.events[0].SessionLabel)
	assert.Equal(t, 1, feed.orders)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidPendingOrderIssuesToken(t *testing.T) {
	wf, mock, kitchen, _ := newWorkflow(t)

	// The payment-center flow on an unapproved order: token issuance
	// happens inside the same transaction as the payment write.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(10)).
		WillReturnRows(orderRow(10, 3, model.StatusPending, false))
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(3)).
		WillReturnRows(sessionRow(3, 4, 2))
	mock.ExpectExec(`UPDATE sessions SET last_token_issued = \? WHERE id = \?`).
		WithArgs(int64(5), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET token = \?, status = \?, approved_at = \?`).
		WithArgs(int64(5), "paid", sqlmock.AnyArg(), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET paid = TRUE, status = \?, paid_at = \?`).
		WithArgs("paid", sqlmock.AnyArg(), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sessionRow(3, 5, 2))

	o, changed, err := wf.MarkPaid(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusPaid, o.Status)
	require.NotNil(t, o.Token)
	assert.Equal(t, int64(5), *o.Token)
	require.Len(t, kitchen.events, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartCookingHappyPath(t *testing.T) {
	wf, mock, _, feed := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(tokenRow(42, 1, 8, model.StatusPaid, true))
	mock.ExpectExec(`UPDATE orders SET status = \?, cooking_at = \? WHERE id = \?`).
		WithArgs("cooking", sqlmock.AnyArg(), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, changed, err := wf.StartCooking(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCooking, o.Status)
	require.NotNil(t, o.CookingAt)
	assert.Equal(t, 1, feed.orders)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartCookingRepeatIsNoOp(t *testing.T) {
	wf, mock, _, _ := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(tokenRow(42, 1, 8, model.StatusCooking, true))
	mock.ExpectRollback()

	o, changed, err := wf.StartCooking(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCooking, o.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartCookingUnpaidOrderRejected(t *testing.T) {
	wf, mock, _, _ := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(tokenRow(42, 1, 8, model.StatusApproved, false))
	mock.ExpectRollback()

	_, _, err := wf.StartCooking(context.Background(), 42)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinishCompletesCookingOrder(t *testing.T) {
	wf, mock, _, _ := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(tokenRow(42, 1, 8, model.StatusCooking, true))
	mock.ExpectExec(`UPDATE orders SET status = \?, completed_at = \? WHERE id = \?`).
		WithArgs("completed", sqlmock.AnyArg(), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, changed, err := wf.Finish(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCompleted, o.Status)
	require.NotNil(t, o.CompletedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}
