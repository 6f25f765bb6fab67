// Package queue defines message payloads exchanged over the message broker.
package queue

// KitchenTicketEvent is published when an order becomes paid and is
// ready for the kitchen. It carries enough for the kitchen display to
// render the ticket without querying the primary database.
type KitchenTicketEvent struct {
	OrderID      uint64            `json:"order_id"`
	Ref          string            `json:"ref"`
	SessionID    uint64            `json:"session_id"`
	SessionLabel string            `json:"session_label"`
	Token        int64             `json:"token"`
	CustomerName string            `json:"customer_name"`
	Items        []KitchenLineItem `json:"items"`
	Total        float64           `json:"total"`
	PaidAt       string            `json:"paid_at"`
}

// KitchenLineItem is one line of a kitchen ticket.
type KitchenLineItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}
