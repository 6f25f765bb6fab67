package repository

import (
	"context"
	"database/sql"

	"github.com/canteenhq/order-desk/internal/model"
)

// MenuRepo provides CRUD for the menu_items catalog. Menu rows carry
// no workflow invariants; plain single-statement writes are enough.
type MenuRepo struct {
	db *sql.DB
}

// NewMenuRepo returns a new MenuRepo bound to the given database.
func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

const menuCols = "id, name, price, descr, img, active, created_at, updated_at"

// Create inserts a catalog item and returns the stored row.
func (r *MenuRepo) Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO menu_items (name, price, descr, img, active) VALUES (?, ?, ?, ?, ?)",
		m.Name, m.Price, m.Desc, m.Img, m.Active)
	if err != nil {
		return model.MenuItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MenuItem{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a catalog item by primary key.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.QueryRowContext(ctx,
		"SELECT "+menuCols+" FROM menu_items WHERE id = ?", id).
		Scan(&m.ID, &m.Name, &m.Price, &m.Desc, &m.Img, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.MenuItem{}, ErrMenuItemNotFound
	}
	return m, err
}

// List returns catalog items. When activeOnly is true, hidden items
// are filtered out; the public menu uses that form.
func (r *MenuRepo) List(ctx context.Context, activeOnly bool) ([]model.MenuItem, error) {
	q := "SELECT " + menuCols + " FROM menu_items ORDER BY name ASC"
	if activeOnly {
		q = "SELECT " + menuCols + " FROM menu_items WHERE active = TRUE ORDER BY name ASC"
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MenuItem, 0)
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Desc, &m.Img, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields of a catalog item.
func (r *MenuRepo) Update(ctx context.Context, m model.MenuItem) (model.MenuItem, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE menu_items SET name = ?, price = ?, descr = ?, img = ?, active = ? WHERE id = ?",
		m.Name, m.Price, m.Desc, m.Img, m.Active, m.ID); err != nil {
		return model.MenuItem{}, err
	}
	// Zero rows affected also happens when nothing changed; the
	// re-read reports ErrMenuItemNotFound only for a missing row.
	return r.GetByID(ctx, m.ID)
}

// SetActive toggles an item's visibility on the public menu.
func (r *MenuRepo) SetActive(ctx context.Context, id uint64, active bool) (model.MenuItem, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE menu_items SET active = ? WHERE id = ?", active, id); err != nil {
		return model.MenuItem{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a catalog item.
func (r *MenuRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}
