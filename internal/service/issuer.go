package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/repository"
)

// Issuer grants sequential queue tokens to orders. All issuance goes
// through one atomic unit: a transaction that locks the order row,
// re-checks that the order is still pending, locks the session row,
// and advances last_token_issued by exactly one. Two concurrent
// approvals of distinct orders serialize on the session lock and get
// distinct consecutive tokens; two concurrent approvals of the same
// order serialize on the order lock and the loser sees a non-pending
// status, rolls back, and changes nothing.
type Issuer struct {
	db       *sql.DB
	orders   *repository.OrderRepo
	sessions *repository.SessionRepo
}

// NewIssuer constructs an Issuer. The *sql.DB must be the same handle
// the repositories are bound to.
func NewIssuer(db *sql.DB, orders *repository.OrderRepo, sessions *repository.SessionRepo) *Issuer {
	return &Issuer{db: db, orders: orders, sessions: sessions}
}

// IssueToken assigns the next token of the session to the given
// pending order and moves it to approved, or straight to paid when
// the order was already marked paid. The returned bool reports
// whether this call actually issued; false means the order had
// already left pending (a racing caller won) and nothing was written.
func (i *Issuer) IssueToken(ctx context.Context, sessionID, orderID uint64) (model.Order, bool, error) {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := i.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return model.Order{}, false, err
	}
	if o.SessionID != sessionID {
		return model.Order{}, false, repository.ErrOrderNotFound
	}
	if o.Status != model.StatusPending {
		// Already processed by a racing caller: abort without
		// touching the counter. Not an error for the caller.
		return o, false, nil
	}

	next, err := i.nextTokenTx(ctx, tx, sessionID)
	if err != nil {
		return model.Order{}, false, err
	}

	status := model.StatusApproved
	if o.Paid {
		status = model.StatusPaid
	}
	now := time.Now().UTC()
	if err := i.orders.AssignTokenTx(ctx, tx, orderID, next, status, now); err != nil {
		return model.Order{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return model.Order{}, false, err
	}
	committed = true

	o.Token = &next
	o.Status = status
	o.ApprovedAt = &now
	return o, true, nil
}

// PlaceWalkIn creates a staff-entered order that bypasses the
// approval queue: born paid, with its token assigned inside the same
// locked transaction that advances the session counter. Walk-ins
// therefore share the numbering with approved orders instead of an
// out-of-band scheme.
func (i *Issuer) PlaceWalkIn(ctx context.Context, sessionID uint64, customerName, phone string, items []model.OrderItem) (model.Order, error) {
	now := time.Now().UTC()
	o := model.Order{
		Ref:          uuid.NewString(),
		SessionID:    sessionID,
		CustomerName: customerName,
		Phone:        phone,
		Items:        items,
		Total:        model.ItemsTotal(items),
		Status:       model.StatusPaid,
		Paid:         true,
		ApprovedAt:   &now,
		PaidAt:       &now,
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	next, err := i.nextTokenTx(ctx, tx, sessionID)
	if err != nil {
		return model.Order{}, err
	}
	o.Token = &next

	if err := i.orders.CreateWalkInTx(ctx, tx, &o); err != nil {
		return model.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	committed = true
	o.CreatedAt = now
	return o, nil
}

// nextTokenTx locks the session row, reads last_token_issued and
// writes back last+1. Must be called inside the transaction that
// also writes the token onto the order, so counter and assignment
// land together or not at all.
func (i *Issuer) nextTokenTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int64, error) {
	sess, err := i.sessions.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		return 0, err
	}
	next := sess.LastTokenIssued + 1
	if err := i.sessions.SetLastTokenTx(ctx, tx, sessionID, next); err != nil {
		return 0, err
	}
	return next, nil
}
