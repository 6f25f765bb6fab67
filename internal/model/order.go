package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the lifecycle state of an order. Orders only ever move
// forward through the lattice
//
//	pending -> {approved|paid} -> cooking -> completed
//
// and are never moved back. The paid flag on Order is orthogonal to
// the "paid" status: an approved order can be marked paid without its
// status changing until the payment-center flow promotes it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCooking   Status = "cooking"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid, StatusCooking, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to
// another through the defined workflow operations. Same-state moves
// are rejected; idempotent no-ops are decided by callers before they
// get here. completed is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusPaid
	case StatusApproved:
		return to == StatusPaid
	case StatusPaid:
		return to == StatusCooking
	case StatusCooking:
		return to == StatusCompleted
	}
	return false
}

// OrderItem is a single line of an order: what was ordered, how many
// and at which unit price at the time of ordering.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order represents a customer order as stored in the `orders` table.
// Every order belongs to exactly one session and is deleted together
// with it. Total is computed once at creation time and never
// re-derived. Token is null until the order is approved; exactly one
// token is ever assigned, exactly once.
//
// Fields:
//  ID           – numeric primary key.
//  Ref          – public tracking code handed to the customer.
//  SessionID    – owning session.
//  CustomerName – name given at ordering time.
//  Phone        – contact number.
//  Items        – ordered lines (stored as JSON).
//  Total        – sum of quantity*price over Items, fixed at creation.
//  Token        – queue token, null while pending.
//  Status       – lifecycle state, see Status.
//  Paid         – whether payment has been collected (orthogonal to Status).
//  CreatedAt    – creation timestamp; the *At fields below record when
//                 each transition happened and stay null until then.
type Order struct {
	ID           uint64      `json:"id"`
	Ref          string      `json:"ref"`
	SessionID    uint64      `json:"session_id"`
	CustomerName string      `json:"customer_name"`
	Phone        string      `json:"phone"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Token        *int64      `json:"token"`
	Status       Status      `json:"status"`
	Paid         bool        `json:"paid"`
	CreatedAt    time.Time   `json:"created_at"`
	ApprovedAt   *time.Time  `json:"approved_at"`
	PaidAt       *time.Time  `json:"paid_at"`
	CookingAt    *time.Time  `json:"cooking_at"`
	CompletedAt  *time.Time  `json:"completed_at"`
}

// ItemsTotal returns the sum of quantity*price over the given lines.
// Used once at order creation; the stored total is authoritative
// afterwards.
func ItemsTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}

// NormalizeItems decodes the items column into an ordered slice.
// Historical records stored items either as a JSON array or as an
// object keyed by position ("0", "1", ...), so both forms are
// accepted. Keyed form is sorted by key to keep the line order
// deterministic. An empty or null column yields an empty slice.
func NormalizeItems(raw []byte) ([]OrderItem, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []OrderItem{}, nil
	}
	var list []OrderItem
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var keyed map[string]OrderItem
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]OrderItem, 0, len(keyed))
	for _, k := range keys {
		out = append(out, keyed[k])
	}
	return out, nil
}
