package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/canteenhq/order-desk/internal/model"
)

// OrderRepo provides CRUD operations for orders. Items are persisted
// as a JSON column and normalized on the way out, so rows written by
// older frontends that stored a keyed object instead of an array
// still scan cleanly. Token and status writes that depend on the
// session counter only happen through the ...Tx variants, inside the
// transaction that locked the order and session rows.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning orders and sessions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderCols = `id, ref, session_id, customer_name, phone, items, total, token, status, paid,
	created_at, approved_at, paid_at, cooking_at, completed_at`

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row orderScanner) (model.Order, error) {
	var o model.Order
	var items []byte
	var token sql.NullInt64
	var approvedAt, paidAt, cookingAt, completedAt sql.NullTime
	err := row.Scan(&o.ID, &o.Ref, &o.SessionID, &o.CustomerName, &o.Phone, &items, &o.Total,
		&token, &o.Status, &o.Paid, &o.CreatedAt, &approvedAt, &paidAt, &cookingAt, &completedAt)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	o.Items, err = model.NormalizeItems(items)
	if err != nil {
		return model.Order{}, err
	}
	if token.Valid {
		v := token.Int64
		o.Token = &v
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		o.ApprovedAt = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	if cookingAt.Valid {
		t := cookingAt.Time
		o.CookingAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	return o, nil
}

// Create inserts a pending order placed through the public surface.
// The generated ID is written back onto the order. Total must have
// been computed by the caller; it is never re-derived afterwards.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (ref, session_id, customer_name, phone, items, total, status, paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Ref, o.SessionID, o.CustomerName, o.Phone, items, o.Total, o.Status, o.Paid)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateWalkInTx inserts a staff-entered order that is born paid and
// already carries its token. It must run inside the transaction that
// locked the session row and advanced its counter, so walk-ins share
// the same numbering as approved orders.
func (r *OrderRepo) CreateWalkInTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (ref, session_id, customer_name, phone, items, total, token, status, paid,
		 approved_at, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Ref, o.SessionID, o.CustomerName, o.Phone, items, o.Total, o.Token, o.Status, o.Paid,
		o.ApprovedAt, o.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByID fetches an order by its primary key.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id = ?", id)
	return scanOrder(row)
}

// GetByRef fetches an order by its public tracking code.
func (r *OrderRepo) GetByRef(ctx context.Context, ref string) (model.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE ref = ?", ref)
	return scanOrder(row)
}

// GetForUpdateTx reads an order inside the given transaction while
// taking a row lock. Workflow transitions re-check their
// precondition on this locked read, which is what turns a racing
// second caller into a no-op instead of a double apply.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE id = ? FOR UPDATE", id)
	return scanOrder(row)
}

// AssignTokenTx writes the issued token together with the new status
// and approval timestamp in one statement, inside the issuing
// transaction. The status guard in the WHERE clause is belt and
// braces: the caller already holds the row lock and has verified the
// order is still pending.
func (r *OrderRepo) AssignTokenTx(ctx context.Context, tx *sql.Tx, id uint64, token int64, status model.Status, approvedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET token = ?, status = ?, approved_at = ? WHERE id = ? AND status = 'pending'",
		token, status, approvedAt, id)
	return err
}

// SetPaidTx marks the order paid and optionally promotes its status,
// inside the locking transaction.
func (r *OrderRepo) SetPaidTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, paidAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET paid = TRUE, status = ?, paid_at = ? WHERE id = ?",
		status, paidAt, id)
	return err
}

// SetStatusTx advances the order status and stamps the transition
// timestamp named by column, inside the locking transaction. column
// is one of the fixed *_at column names, never user input.
func (r *OrderRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, column string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, "+column+" = ? WHERE id = ?",
		status, at, id)
	return err
}

// ListBySession returns all orders of one session, oldest first, so
// queue positions on the dashboard match issuance order.
func (r *OrderRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Order, error) {
	return r.list(ctx,
		"SELECT "+orderCols+" FROM orders WHERE session_id = ? ORDER BY id ASC", sessionID)
}

// ListBySessionStatus returns the session's orders that are in any of
// the given statuses, ordered by token (unassigned last).
func (r *OrderRepo) ListBySessionStatus(ctx context.Context, sessionID uint64, statuses ...model.Status) ([]model.Order, error) {
	if len(statuses) == 0 {
		return []model.Order{}, nil
	}
	args := []any{sessionID}
	ph := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ph = append(ph, "?")
		args = append(args, s)
	}
	q := "SELECT " + orderCols + " FROM orders WHERE session_id = ? AND status IN (" +
		strings.Join(ph, ",") + ") ORDER BY token IS NULL, token ASC, id ASC"
	return r.list(ctx, q, args...)
}

// ListUnpaid returns the session's orders awaiting payment for the
// payment center, oldest first.
func (r *OrderRepo) ListUnpaid(ctx context.Context, sessionID uint64) ([]model.Order, error) {
	return r.list(ctx,
		"SELECT "+orderCols+" FROM orders WHERE session_id = ? AND paid = FALSE ORDER BY id ASC",
		sessionID)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Delete removes an order permanently. Legal from any status;
// deletion sits outside the status lattice and is irreversible.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
