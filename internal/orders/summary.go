package orders

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CustomerSummary aggregates the orders of one customer. Derived on read,
// never persisted.
type CustomerSummary struct {
	Customer      string          `json:"customer"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OrderCount    int             `json:"orderCount"`
	LastOrderDate string          `json:"lastOrderDate"`
}

// Summaries computes per-customer aggregates over the given orders, sorted by
// customer name ascending.
func Summaries(orders []Order) []CustomerSummary {
	byName := make(map[string]*CustomerSummary)
	for _, o := range orders {
		s, ok := byName[o.Customer]
		if !ok {
			s = &CustomerSummary{Customer: o.Customer}
			byName[o.Customer] = s
		}
		s.TotalAmount = s.TotalAmount.Add(o.Amount)
		s.OrderCount++
		if o.Date > s.LastOrderDate {
			s.LastOrderDate = o.Date
		}
	}

	out := make([]CustomerSummary, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Customer < out[j].Customer })
	return out
}
