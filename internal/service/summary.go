package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/canteenhq/order-desk/internal/model"
)

// SessionSummary is the read-side aggregation shown on the owner
// screen: payment counts, paid revenue and a per-item breakdown over
// paid orders. It is computed from a snapshot of the session's orders
// and is deterministic for a fixed snapshot.
type SessionSummary struct {
	SessionID   uint64        `json:"session_id"`
	Label       string        `json:"label"`
	TotalOrders int           `json:"total_orders"`
	PaidCount   int           `json:"paid_count"`
	UnpaidCount int           `json:"unpaid_count"`
	TotalAmount float64       `json:"total_amount"`
	Items       []ItemSummary `json:"items"`
}

// ItemSummary aggregates one menu item across all paid orders of a
// session.
type ItemSummary struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// Summarize folds a snapshot of the session's orders into a
// SessionSummary. Only paid orders contribute to revenue and to the
// per-item breakdown; counts cover everything, so PaidCount plus
// UnpaidCount always equals TotalOrders. Items are sorted by name for
// stable output.
func Summarize(sess model.Session, orders []model.Order) SessionSummary {
	s := SessionSummary{SessionID: sess.ID, Label: sess.Label, Items: []ItemSummary{}}
	byName := make(map[string]*ItemSummary)
	for _, o := range orders {
		s.TotalOrders++
		if !o.Paid {
			s.UnpaidCount++
			continue
		}
		s.PaidCount++
		s.TotalAmount += o.Total
		for _, it := range o.Items {
			agg, ok := byName[it.Name]
			if !ok {
				agg = &ItemSummary{Name: it.Name}
				byName[it.Name] = agg
			}
			agg.Quantity += it.Quantity
			agg.Revenue += float64(it.Quantity) * it.Price
		}
	}
	for _, agg := range byName {
		s.Items = append(s.Items, *agg)
	}
	sort.Slice(s.Items, func(i, j int) bool { return s.Items[i].Name < s.Items[j].Name })
	return s
}

// WriteSummaryCSV renders a summary as CSV for the owner export: a
// header block with the session totals followed by the per-item rows.
func WriteSummaryCSV(out io.Writer, s SessionSummary) error {
	w := csv.NewWriter(out)
	rows := [][]string{
		{"session", s.Label},
		{"total_orders", fmt.Sprintf("%d", s.TotalOrders)},
		{"paid_orders", fmt.Sprintf("%d", s.PaidCount)},
		{"unpaid_orders", fmt.Sprintf("%d", s.UnpaidCount)},
		{"total_amount", fmt.Sprintf("%.2f", s.TotalAmount)},
		{},
		{"item", "quantity", "revenue"},
	}
	for _, it := range s.Items {
		rows = append(rows, []string{it.Name, fmt.Sprintf("%d", it.Quantity), fmt.Sprintf("%.2f", it.Revenue)})
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
