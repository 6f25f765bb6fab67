package service

import (
	"context"
	"time"
)

// CallNext advances the session's now-serving pointer by one, bounded
// by the number of tokens actually issued: a token that has not been
// handed out cannot be announced. Runs under the session row lock so
// two staff clients clicking "next" together advance by two, never
// past the counter. The bool reports whether the pointer moved.
func (w *Workflow) CallNext(ctx context.Context, sessionID uint64) (int64, bool, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sess, err := w.sessions.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		return 0, false, err
	}
	if sess.CurrentToken+1 > sess.LastTokenIssued {
		// Nothing left to call.
		return sess.CurrentToken, false, nil
	}
	next := sess.CurrentToken + 1
	now := time.Now().UTC()
	if err := w.sessions.SetServingTx(ctx, tx, sessionID, next, now); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	committed = true

	w.notifyServing(ctx, sessionID)
	return next, true, nil
}

// CallAgain re-announces the current token: only last_called_at moves.
func (w *Workflow) CallAgain(ctx context.Context, sessionID uint64) (int64, error) {
	sess, err := w.sessions.TouchCalled(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	w.notifyServing(ctx, sessionID)
	return sess.CurrentToken, nil
}
