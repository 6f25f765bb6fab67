package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallNextAdvances(t *testing.T) {
	wf, mock, _, feed := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 10, 4))
	mock.ExpectExec(`UPDATE sessions SET current_token = \?, last_called_at = \? WHERE id = \?`).
		WithArgs(int64(5), sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	current, advanced, err := wf.CallNext(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, int64(5), current)
	assert.Equal(t, 1, feed.serving)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCallNextBoundedByIssuance(t *testing.T) {
	wf, mock, _, feed := newWorkflow(t)

	// current has caught up with last issued: nothing left to call,
	// the pointer must not move past the counter.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 4, 4))
	mock.ExpectRollback()

	current, advanced, err := wf.CallNext(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, int64(4), current)
	assert.Zero(t, feed.serving)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCallNextEmptySession(t *testing.T) {
	wf, mock, _, _ := newWorkflow(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 0, 0))
	mock.ExpectRollback()

	current, advanced, err := wf.CallNext(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Zero(t, current)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCallAgainDoesNotAdvance(t *testing.T) {
	wf, mock, _, feed := newWorkflow(t)

	mock.ExpectExec(`UPDATE sessions SET last_called_at = \? WHERE id = \?`).
		WithArgs(sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM sessions WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sessionRow(1, 10, 4))

	current, err := wf.CallAgain(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), current)
	assert.Equal(t, 1, feed.serving)

	require.NoError(t, mock.ExpectationsWereMet())
}
