package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canteenhq/order-desk/internal/model"
)

var orderTestCols = []string{
	"id", "ref", "session_id", "customer_name", "phone", "items", "total",
	"token", "status", "paid", "created_at", "approved_at", "paid_at", "cooking_at", "completed_at",
}

func newOrderRepo(t *testing.T) (*OrderRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderRepo(db), mock
}

func TestOrderGetByRefNormalizesKeyedItems(t *testing.T) {
	repo, mock := newOrderRepo(t)

	// Rows written by the old frontend store items as an object keyed
	// by position; they must come back as an ordered slice.
	raw := []byte(`{"1":{"name":"Tea","quantity":1,"price":250},"0":{"name":"Plov","quantity":2,"price":1800}}`)
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE ref = \?`).
		WithArgs("ref-abc").
		WillReturnRows(sqlmock.NewRows(orderTestCols).AddRow(
			1, "ref-abc", 2, "Aigerim", "+7700", raw, 3850.0,
			nil, "pending", false, time.Now(), nil, nil, nil, nil))

	o, err := repo.GetByRef(context.Background(), "ref-abc")
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Plov", o.Items[0].Name)
	assert.Equal(t, "Tea", o.Items[1].Name)
	assert.Nil(t, o.Token)
	assert.Equal(t, model.StatusPending, o.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderGetByIDNotFound(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows(orderTestCols))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateWritesBackID(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectExec(`INSERT INTO orders \(ref, session_id, customer_name, phone, items, total, status, paid\)`).
		WillReturnResult(sqlmock.NewResult(55, 1))

	o := model.Order{
		Ref:       "ref-new",
		SessionID: 1,
		Items:     []model.OrderItem{{Name: "Plov", Quantity: 1, Price: 1800}},
		Total:     1800,
		Status:    model.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), &o))
	assert.Equal(t, uint64(55), o.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBySessionStatusNoStatuses(t *testing.T) {
	repo, _ := newOrderRepo(t)

	got, err := repo.ListBySessionStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOrderDeleteMissing(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectExec(`DELETE FROM orders WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
