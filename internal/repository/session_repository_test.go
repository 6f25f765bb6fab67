package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepo(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(db), mock
}

func TestSessionCreateStartsAtZero(t *testing.T) {
	repo, mock := newSessionRepo(t)

	mock.ExpectExec(`INSERT INTO sessions \(label, last_token_issued, current_token\) VALUES \(\?, 0, 0\)`).
		WithArgs("Saturday lunch").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "label", "last_token_issued", "current_token", "last_called_at", "created_at"}).
			AddRow(3, "Saturday lunch", 0, 0, nil, time.Now()))

	sess, err := repo.Create(context.Background(), "Saturday lunch")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sess.ID)
	assert.Zero(t, sess.LastTokenIssued)
	assert.Zero(t, sess.CurrentToken)
	assert.Nil(t, sess.LastCalledAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteCascades(t *testing.T) {
	repo, mock := newSessionRepo(t)

	// Orders go first, then the session, in one transaction.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM orders WHERE session_id = \?`).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteMissingRollsBack(t *testing.T) {
	repo, mock := newSessionRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM orders WHERE session_id = \?`).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetByIDNotFound(t *testing.T) {
	repo, mock := newSessionRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \?`).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "label", "last_token_issued", "current_token", "last_called_at", "created_at"}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
