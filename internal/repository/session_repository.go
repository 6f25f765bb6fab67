package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/canteenhq/order-desk/internal/model"
)

// SessionRepo provides CRUD operations for serving sessions and
// their token counters. The counter columns are only ever changed
// under a row lock taken with GetForUpdateTx so that concurrent
// issuance and calling serialize on the session row. All timestamp
// fields are assumed to be stored in UTC.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning sessions and orders.
func (r *SessionRepo) DB() *sql.DB { return r.db }

const sessionCols = "id, label, last_token_issued, current_token, last_called_at, created_at"

func scanSession(row *sql.Row) (model.Session, error) {
	var s model.Session
	var calledAt sql.NullTime
	err := row.Scan(&s.ID, &s.Label, &s.LastTokenIssued, &s.CurrentToken, &calledAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if calledAt.Valid {
		t := calledAt.Time
		s.LastCalledAt = &t
	}
	return s, nil
}

// Create inserts a new session with both counters at zero and
// returns the stored row.
func (r *SessionRepo) Create(ctx context.Context, label string) (model.Session, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (label, last_token_issued, current_token) VALUES (?, 0, 0)", label)
	if err != nil {
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a session by its primary key.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id = ?", id)
	return scanSession(row)
}

// GetForUpdateTx reads a session inside the given transaction while
// taking a row lock. Every mutation of the token counters goes
// through this lock; it is the atomic unit that keeps concurrent
// issuance in the same session from ever handing out the same token.
func (r *SessionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Session, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id = ? FOR UPDATE", id)
	return scanSession(row)
}

// List returns all sessions, newest first.
func (r *SessionRepo) List(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionCols+" FROM sessions ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		var calledAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Label, &s.LastTokenIssued, &s.CurrentToken, &calledAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		if calledAt.Valid {
			t := calledAt.Time
			s.LastCalledAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetLastTokenTx writes a new last_token_issued value inside the
// transaction that locked the row. The caller computes the value
// from the locked read; the counter never moves backwards.
func (r *SessionRepo) SetLastTokenTx(ctx context.Context, tx *sql.Tx, id uint64, last int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE sessions SET last_token_issued = ? WHERE id = ?", last, id)
	return err
}

// SetServingTx advances the now-serving pointer and stamps
// last_called_at inside the locking transaction.
func (r *SessionRepo) SetServingTx(ctx context.Context, tx *sql.Tx, id uint64, current int64, calledAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE sessions SET current_token = ?, last_called_at = ? WHERE id = ?",
		current, calledAt, id)
	return err
}

// TouchCalled stamps last_called_at without moving the serving
// pointer; used to re-announce the same token. Not token-sensitive,
// so it runs outside any transaction.
func (r *SessionRepo) TouchCalled(ctx context.Context, id uint64, calledAt time.Time) (model.Session, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET last_called_at = ? WHERE id = ?", calledAt, id); err != nil {
		return model.Session{}, err
	}
	// A zero rows-affected count cannot distinguish a missing row
	// from an unchanged one; the re-read settles it either way.
	return r.GetByID(ctx, id)
}

// Delete removes a session together with every order that belongs to
// it. Both deletes run in one transaction so observers never see an
// orphaned order.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE session_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
