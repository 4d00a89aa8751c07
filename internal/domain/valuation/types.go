// Package valuation computes point-in-time and period inventory valuations
// from ledger replay using the periodic weighted-average cost method.
package valuation

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Record is the per-item valuation for a reporting window. Produced fresh per
// request and never mutated after construction.
type Record struct {
	ItemID       id.ID  `json:"itemId"`
	ItemName     string `json:"itemName"`
	Description  string `json:"description"`
	CategoryName string `json:"categoryName"`

	OpeningStock types.Quantity `json:"openingStock"`
	Purchases    types.Quantity `json:"purchases"`
	Adjustments  types.Quantity `json:"adjustments"`
	HQIssues     types.Quantity `json:"hqIssues"`
	JabiIssues   types.Quantity `json:"jabiIssues"`
	ClosingStock types.Quantity `json:"closingStock"`

	// UnitPrice is the period weighted-average cost.
	UnitPrice  types.Money `json:"unitPrice"`
	TotalValue types.Money `json:"totalValue"`
	COGS       types.Money `json:"cogs"`
}

// Totals accumulates the summable fields of valuation records. UnitPrice and
// COGS are per-item figures and are not totalled, matching the published
// report layout.
type Totals struct {
	OpeningStock types.Quantity `json:"openingStock"`
	Purchases    types.Quantity `json:"purchases"`
	Adjustments  types.Quantity `json:"adjustments"`
	HQIssues     types.Quantity `json:"hqIssues"`
	JabiIssues   types.Quantity `json:"jabiIssues"`
	ClosingStock types.Quantity `json:"closingStock"`
	TotalValue   types.Money    `json:"totalValue"`
}

// NewTotals returns a fresh zero-valued totals bucket. Every accumulation
// target gets its own instance; buckets are never shared or copied from a
// common mutable template.
func NewTotals() *Totals {
	return &Totals{
		OpeningStock: types.Zero(),
		Purchases:    types.Zero(),
		Adjustments:  types.Zero(),
		HQIssues:     types.Zero(),
		JabiIssues:   types.Zero(),
		ClosingStock: types.Zero(),
		TotalValue:   types.Zero(),
	}
}

// Add folds one record into the totals.
func (t *Totals) Add(r Record) {
	t.OpeningStock = t.OpeningStock.Add(r.OpeningStock)
	t.Purchases = t.Purchases.Add(r.Purchases)
	t.Adjustments = t.Adjustments.Add(r.Adjustments)
	t.HQIssues = t.HQIssues.Add(r.HQIssues)
	t.JabiIssues = t.JabiIssues.Add(r.JabiIssues)
	t.ClosingStock = t.ClosingStock.Add(r.ClosingStock)
	t.TotalValue = t.TotalValue.Add(r.TotalValue)
}

// CategoryGroup holds the records and running totals of one category.
// Categories appear in the report in first-seen item order.
type CategoryGroup struct {
	Category string   `json:"category"`
	Items    []Record `json:"items"`
	Totals   *Totals  `json:"totals"`
}

// Report is the full aggregation result: per-category groups plus grand
// totals. The cache and presentation layers consume it as a value; the core
// does not persist it.
type Report struct {
	Groups      []CategoryGroup `json:"groups"`
	GrandTotals *Totals         `json:"grandTotals"`
}

// Meta describes how and when a report was generated.
type Meta struct {
	GeneratedBy string    `json:"generatedBy"`
	GeneratedAt time.Time `json:"generatedAt"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}
