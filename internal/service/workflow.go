package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/queue"
	"github.com/canteenhq/order-desk/internal/repository"
)

// ErrInvalidTransition is returned when a workflow operation is asked
// to move an order somewhere the status lattice does not allow, e.g.
// starting to cook an order that was never paid. Handlers translate
// it into an HTTP 409.
var ErrInvalidTransition = errors.New("invalid status transition")

// ChangeNotifier receives a nudge whenever a session's orders or its
// now-serving pointer change, so live dashboard views can refresh.
// Implementations must be safe for concurrent use and must never
// block the caller for long; delivery is best effort.
type ChangeNotifier interface {
	OrderChanged(ctx context.Context, sessionID uint64)
	ServingChanged(ctx context.Context, sessionID uint64)
}

// Workflow drives orders through their lifecycle. Transitions whose
// precondition turns out stale inside the atomic unit (a racing staff
// member got there first) resolve to silent no-ops; genuinely illegal
// moves return ErrInvalidTransition.
type Workflow struct {
	db       *sql.DB
	orders   *repository.OrderRepo
	sessions *repository.SessionRepo
	issuer   *Issuer
	kitchen  KitchenNotifier
	feed     ChangeNotifier
}

// NewWorkflow wires the workflow engine. kitchen and feed may be nil
// in tests; both are consulted only after a successful commit.
func NewWorkflow(db *sql.DB, orders *repository.OrderRepo, sessions *repository.SessionRepo, issuer *Issuer, kitchen KitchenNotifier, feed ChangeNotifier) *Workflow {
	return &Workflow{db: db, orders: orders, sessions: sessions, issuer: issuer, kitchen: kitchen, feed: feed}
}

// PlaceOrder creates a pending order from the public ordering
// surface. The total is computed here, once; it is never re-derived.
func (w *Workflow) PlaceOrder(ctx context.Context, sessionID uint64, customerName, phone string, items []model.OrderItem) (model.Order, error) {
	if _, err := w.sessions.GetByID(ctx, sessionID); err != nil {
		return model.Order{}, err
	}
	o := model.Order{
		Ref:          uuid.NewString(),
		SessionID:    sessionID,
		CustomerName: customerName,
		Phone:        phone,
		Items:        items,
		Total:        model.ItemsTotal(items),
		Status:       model.StatusPending,
	}
	if err := w.orders.Create(ctx, &o); err != nil {
		return model.Order{}, err
	}
	o.CreatedAt = time.Now().UTC()
	w.notifyOrders(ctx, sessionID)
	return o, nil
}

// Approve issues the session's next token to a pending order and
// moves it to approved (or paid, when payment was already collected).
// Approving an order that is no longer pending is a no-op; the second
// result reports whether a token was actually issued.
func (w *Workflow) Approve(ctx context.Context, sessionID, orderID uint64) (model.Order, bool, error) {
	o, issued, err := w.issuer.IssueToken(ctx, sessionID, orderID)
	if err != nil {
		return model.Order{}, false, err
	}
	if issued {
		if o.Status == model.StatusPaid {
			w.sendToKitchen(ctx, o)
		}
		w.notifyOrders(ctx, sessionID)
	}
	return o, issued, nil
}

// MarkPaid records payment for an order. Already-paid orders are left
// untouched (idempotent; paidAt keeps its original value). An
// approved order moves to status paid; a still-pending order is
// promoted through the same token issuance as an approval, so the
// token invariant holds. The bool reports whether anything changed.
func (w *Workflow) MarkPaid(ctx context.Context, orderID uint64) (model.Order, bool, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := w.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return model.Order{}, false, err
	}
	if o.Paid {
		// Idempotent repeat: nothing to write.
		return o, false, nil
	}

	now := time.Now().UTC()
	newStatus := o.Status
	switch o.Status {
	case model.StatusPending:
		// Payment-center flow on an unapproved order: issue the
		// token here so status=paid never exists without one.
		next, err := w.issuer.nextTokenTx(ctx, tx, o.SessionID)
		if err != nil {
			return model.Order{}, false, err
		}
		if err := w.orders.AssignTokenTx(ctx, tx, orderID, next, model.StatusPaid, now); err != nil {
			return model.Order{}, false, err
		}
		o.Token = &next
		o.ApprovedAt = &now
		newStatus = model.StatusPaid
	case model.StatusApproved:
		newStatus = model.StatusPaid
	}
	if err := w.orders.SetPaidTx(ctx, tx, orderID, newStatus, now); err != nil {
		return model.Order{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, false, err
	}
	committed = true

	o.Paid = true
	o.PaidAt = &now
	o.Status = newStatus
	if newStatus == model.StatusPaid {
		w.sendToKitchen(ctx, o)
	}
	w.notifyOrders(ctx, o.SessionID)
	return o, true, nil
}

// StartCooking moves a paid order to cooking. Repeating the call on
// an order that is already cooking is a no-op; any other starting
// state is an invalid transition.
func (w *Workflow) StartCooking(ctx context.Context, orderID uint64) (model.Order, bool, error) {
	return w.advance(ctx, orderID, model.StatusPaid, model.StatusCooking, "cooking_at")
}

// Finish moves a cooking order to completed, the terminal state.
// Repeating the call on a completed order is a no-op.
func (w *Workflow) Finish(ctx context.Context, orderID uint64) (model.Order, bool, error) {
	return w.advance(ctx, orderID, model.StatusCooking, model.StatusCompleted, "completed_at")
}

// advance performs a single forward step under the order row lock.
// An order already at the target state means a racing caller got
// there first: silent no-op. Anything else that fails the
// CanTransition check is a genuine misuse.
func (w *Workflow) advance(ctx context.Context, orderID uint64, from, to model.Status, column string) (model.Order, bool, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := w.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return model.Order{}, false, err
	}
	if o.Status == to {
		return o, false, nil
	}
	if o.Status != from || !model.CanTransition(from, to) {
		return model.Order{}, false, ErrInvalidTransition
	}
	now := time.Now().UTC()
	if err := w.orders.SetStatusTx(ctx, tx, orderID, to, column, now); err != nil {
		return model.Order{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, false, err
	}
	committed = true

	o.Status = to
	switch to {
	case model.StatusCooking:
		o.CookingAt = &now
	case model.StatusCompleted:
		o.CompletedAt = &now
	}
	w.notifyOrders(ctx, o.SessionID)
	return o, true, nil
}

// WalkIn creates a staff-entered order that is paid and tokenized in
// one step, then routes it straight to the kitchen.
func (w *Workflow) WalkIn(ctx context.Context, sessionID uint64, customerName, phone string, items []model.OrderItem) (model.Order, error) {
	o, err := w.issuer.PlaceWalkIn(ctx, sessionID, customerName, phone, items)
	if err != nil {
		return model.Order{}, err
	}
	w.sendToKitchen(ctx, o)
	w.notifyOrders(ctx, sessionID)
	return o, nil
}

// Delete removes an order permanently, regardless of status.
func (w *Workflow) Delete(ctx context.Context, orderID uint64) error {
	o, err := w.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := w.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	w.notifyOrders(ctx, o.SessionID)
	return nil
}

// sendToKitchen publishes a kitchen ticket for a paid order. Failures
// are logged and swallowed: the database row is the source of truth
// and the kitchen board also polls it.
func (w *Workflow) sendToKitchen(ctx context.Context, o model.Order) {
	if w.kitchen == nil || o.Token == nil {
		return
	}
	label := ""
	if sess, err := w.sessions.GetByID(ctx, o.SessionID); err == nil {
		label = sess.Label
	}
	lines := make([]queue.KitchenLineItem, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, queue.KitchenLineItem{Name: it.Name, Quantity: it.Quantity})
	}
	paidAt := ""
	if o.PaidAt != nil {
		paidAt = o.PaidAt.Format(time.RFC3339)
	}
	ev := queue.KitchenTicketEvent{
		OrderID:      o.ID,
		Ref:          o.Ref,
		SessionID:    o.SessionID,
		SessionLabel: label,
		Token:        *o.Token,
		CustomerName: o.CustomerName,
		Items:        lines,
		Total:        o.Total,
		PaidAt:       paidAt,
	}
	if err := w.kitchen.PublishTicket(ctx, ev); err != nil {
		log.Printf("workflow: kitchen publish failed for order %d: %v", o.ID, err)
	}
}

func (w *Workflow) notifyOrders(ctx context.Context, sessionID uint64) {
	if w.feed != nil {
		w.feed.OrderChanged(ctx, sessionID)
	}
}

func (w *Workflow) notifyServing(ctx context.Context, sessionID uint64) {
	if w.feed != nil {
		w.feed.ServingChanged(ctx, sessionID)
	}
}
