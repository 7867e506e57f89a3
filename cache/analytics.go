// ABOUTME: Read-only summaries over cached deals, invoices and expenses
// ABOUTME: Pipeline value per stage and yearly revenue figures
package cache

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/harperreed/bizcrm/models"
)

// StageTotal is the count and value of deals in one pipeline stage.
type StageTotal struct {
	Stage models.DealStage `json:"stage"`
	Count int              `json:"count"`
	Value decimal.Decimal  `json:"value"`
}

// PipelineSummary returns one entry per stage in pipeline order.
func (c *Cache) PipelineSummary() []StageTotal {
	totals := make([]StageTotal, len(models.DealStages))
	for i, stage := range models.DealStages {
		totals[i] = StageTotal{Stage: stage, Value: decimal.Zero}
	}
	for _, d := range c.Deals.List() {
		i := d.Stage.Index()
		if i < 0 {
			continue
		}
		totals[i].Count++
		totals[i].Value = totals[i].Value.Add(d.Value)
	}
	return totals
}

// Revenue summarizes one calendar year.
type Revenue struct {
	Year      int
	Paid      decimal.Decimal
	Open      decimal.Decimal
	Cancelled decimal.Decimal
	Expenses  decimal.Decimal
	Net       decimal.Decimal // Paid - Expenses
}

// RevenueSummary totals invoices and expenses dated in year. Credit notes
// are skipped; their originals count as cancelled.
func (c *Cache) RevenueSummary(year int) Revenue {
	r := Revenue{
		Year:      year,
		Paid:      decimal.Zero,
		Open:      decimal.Zero,
		Cancelled: decimal.Zero,
		Expenses:  decimal.Zero,
	}

	for _, inv := range c.Invoices.List() {
		if !inYear(inv.Date, year) || inv.IsCreditNote() {
			continue
		}
		switch {
		case inv.IsCancelled:
			r.Cancelled = r.Cancelled.Add(inv.Amount)
		case inv.IsPaid:
			r.Paid = r.Paid.Add(inv.Amount)
		default:
			r.Open = r.Open.Add(inv.Amount)
		}
	}
	for _, e := range c.Expenses.List() {
		if inYear(e.Date, year) {
			r.Expenses = r.Expenses.Add(e.Amount)
		}
	}
	r.Net = r.Paid.Sub(r.Expenses)
	return r
}

func inYear(date string, year int) bool {
	y, _, ok := strings.Cut(date, "-")
	return ok && y == strconv.Itoa(year)
}
