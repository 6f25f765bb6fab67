package model

import "time"

// MenuItem is a row of the `menu_items` catalog. Hidden items
// (Active=false) stay in the table so past orders keep a valid name
// but are excluded from the public menu.
type MenuItem struct {
	ID        uint64    `json:"id"`         // menu_items.id
	Name      string    `json:"name"`       // menu_items.name
	Price     float64   `json:"price"`      // menu_items.price
	Desc      string    `json:"desc"`       // menu_items.descr
	Img       string    `json:"img"`        // menu_items.img
	Active    bool      `json:"active"`     // menu_items.active
	CreatedAt time.Time `json:"created_at"` // menu_items.created_at
	UpdatedAt time.Time `json:"updated_at"` // menu_items.updated_at
}
