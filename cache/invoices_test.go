// ABOUTME: Tests for invoice numbering, cancellation and commission invoices
// ABOUTME: Also covers activities and deal pipeline helpers built on the cache
package cache

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/store"
)

func newEmptyInvoiceCache(t *testing.T) (*Cache, *store.Memory) {
	t.Helper()
	c, mem := newTestCache(t)
	require.NoError(t, c.Invoices.Mutate(context.Background(), func([]models.Invoice) ([]models.Invoice, bool) {
		return []models.Invoice{}, true
	}))
	return c, mem
}

func TestNextInvoiceNumberUsesMaxPlusOne(t *testing.T) {
	c, _ := newEmptyInvoiceCache(t)
	ctx := context.Background()

	assert.Equal(t, "2025-101", c.NextInvoiceNumber(2025))

	for _, n := range []string{"2025-101", "2025-103"} {
		_, err := c.CreateInvoice(ctx, models.Invoice{Number: n, Date: "2025-03-01", Amount: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}

	assert.Equal(t, "2025-104", c.NextInvoiceNumber(2025))
	assert.Equal(t, "2026-101", c.NextInvoiceNumber(2026))
}

func TestCreateInvoiceAssignsNumberFromDate(t *testing.T) {
	c, _ := newEmptyInvoiceCache(t)
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, models.Invoice{Date: "2024-12-30", Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Equal(t, "2024-101", inv.Number)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, models.InvoiceNormal, inv.Type)

	inv, err = c.CreateInvoice(ctx, models.Invoice{Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.Equal(t, "2025-101", inv.Number)
	assert.Equal(t, "2025-06-15", inv.Date)
}

func TestCreateInvoiceRejectsDuplicateNumber(t *testing.T) {
	c, mem := newEmptyInvoiceCache(t)
	ctx := context.Background()

	_, err := c.CreateInvoice(ctx, models.Invoice{Number: "2025-101"})
	require.NoError(t, err)

	_, err = c.CreateInvoice(ctx, models.Invoice{Number: "2025-101"})
	assert.ErrorIs(t, err, ErrDuplicateNumber)
	assert.Equal(t, 1, c.Invoices.Len())
	assertCoherent(t, mem, c.Invoices)
}

func TestUpdateInvoiceKeepsNumberUnique(t *testing.T) {
	c, mem := newEmptyInvoiceCache(t)
	ctx := context.Background()

	first, err := c.CreateInvoice(ctx, models.Invoice{Date: "2026-02-01", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	second, err := c.CreateInvoice(ctx, models.Invoice{Date: "2026-02-02", Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	require.Equal(t, "2026-101", first.Number)
	require.Equal(t, "2026-102", second.Number)

	edit := second
	edit.Number = first.Number
	found, err := c.UpdateInvoice(ctx, edit)
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrDuplicateNumber)

	edit.Number = "2026-150"
	_, err = c.UpdateInvoice(ctx, edit)
	assert.ErrorIs(t, err, ErrNumberChanged)

	edit.Number = ""
	edit.Description = "Workshop, two days"
	edit.IsCancelled = true
	found, err = c.UpdateInvoice(ctx, edit)
	require.NoError(t, err)
	assert.True(t, found)

	got, ok := c.Invoices.Get(second.ID)
	require.True(t, ok)
	assert.Equal(t, "2026-102", got.Number)
	assert.Equal(t, "Workshop, two days", got.Description)
	assert.False(t, got.IsCancelled, "cancelling goes through CancelInvoice")

	numbers := map[string]int{}
	for _, inv := range c.Invoices.List() {
		numbers[inv.Number]++
	}
	assert.Equal(t, map[string]int{"2026-101": 1, "2026-102": 1}, numbers)
	assertCoherent(t, mem, c.Invoices)

	found, err = c.UpdateInvoice(ctx, models.Invoice{ID: "ghost", Number: "2026-999"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateInvoiceRejectsCreditNote(t *testing.T) {
	c, _ := newEmptyInvoiceCache(t)
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, models.Invoice{Date: "2025-06-01", Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)
	credit, err := c.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)

	credit.Description = "changed"
	_, err = c.UpdateInvoice(ctx, credit)
	assert.ErrorIs(t, err, ErrCreditNote)
}

func TestCancelInvoiceCreatesCreditNote(t *testing.T) {
	c, mem := newEmptyInvoiceCache(t)
	ctx := context.Background()

	orig, err := c.CreateInvoice(ctx, models.Invoice{Number: "2025-101", Date: "2025-02-01", ContactID: "c1", Amount: decimal.RequireFromString("499.90")})
	require.NoError(t, err)

	credit, err := c.CancelInvoice(ctx, orig.ID)
	require.NoError(t, err)

	assert.Equal(t, "2025-102", credit.Number)
	assert.Equal(t, orig.ID, credit.CancelsInvoiceID)
	assert.True(t, credit.Amount.Equal(decimal.RequireFromString("-499.90")))
	assert.True(t, credit.IsCreditNote())

	stored, ok := c.Invoices.Get(orig.ID)
	require.True(t, ok, "cancelled invoice must be kept")
	assert.True(t, stored.IsCancelled)
	assert.Equal(t, 2, c.Invoices.Len())
	assertCoherent(t, mem, c.Invoices)

	_, err = c.CancelInvoice(ctx, orig.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	_, err = c.CancelInvoice(ctx, credit.ID)
	assert.ErrorIs(t, err, ErrCreditNote)

	_, err = c.CancelInvoice(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	assert.Equal(t, models.ActivityInvoiceVoid, c.Activities.List()[0].Type)
}

func TestMarkInvoicePaidAndSent(t *testing.T) {
	c, _ := newEmptyInvoiceCache(t)
	ctx := context.Background()
	unread := c.UnreadCount()

	inv, err := c.CreateInvoice(ctx, models.Invoice{Number: "2025-101", Amount: decimal.NewFromInt(900)})
	require.NoError(t, err)

	sent, err := c.MarkInvoiceSent(ctx, inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", sent.SentDate)

	paid, err := c.MarkInvoicePaid(ctx, inv.ID, "2025-06-20")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "2025-06-20", paid.PaidDate)
	assert.False(t, paid.IsOpen())

	assert.Equal(t, unread+1, c.UnreadCount())
	assert.Equal(t, models.ActivityInvoicePaid, c.Activities.List()[0].Type)

	_, err = c.MarkInvoicePaid(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestPayCancelledInvoiceFails(t *testing.T) {
	c, _ := newEmptyInvoiceCache(t)
	ctx := context.Background()

	inv, err := c.CreateInvoice(ctx, models.Invoice{Number: "2025-101", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = c.CancelInvoice(ctx, inv.ID)
	require.NoError(t, err)

	_, err = c.MarkInvoicePaid(ctx, inv.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCreateCommissionInvoice(t *testing.T) {
	c, _ := newEmptyInvoiceCache(t)
	ctx := context.Background()

	a, err := c.CreateInvoice(ctx, models.Invoice{Number: "2025-101", Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	b, err := c.CreateInvoice(ctx, models.Invoice{Number: "2025-102", Amount: decimal.RequireFromString("250.50")})
	require.NoError(t, err)

	inv, err := c.CreateCommissionInvoice(ctx, "agent", []string{a.ID, b.ID}, decimal.RequireFromString("0.1"))
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceCommission, inv.Type)
	assert.Equal(t, "2025-103", inv.Number)
	assert.Equal(t, "125.05", inv.Amount.StringFixed(2))
	assert.Equal(t, []string{a.ID, b.ID}, inv.SourceInvoiceIDs)

	_, err = c.CreateCommissionInvoice(ctx, "agent", []string{"missing"}, decimal.RequireFromString("0.1"))
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	_, err = c.CreateCommissionInvoice(ctx, "agent", nil, decimal.RequireFromString("0.1"))
	assert.Error(t, err)
}

func TestActivities(t *testing.T) {
	c, mem := newTestCache(t)
	ctx := context.Background()

	a, err := c.RecordActivity(ctx, models.ActivitySystem, "Hello", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, c.Activities.List()[0].ID)
	assert.Equal(t, testNow, a.Timestamp)

	unread := c.UnreadCount()
	found, err := c.MarkActivityRead(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, unread-1, c.UnreadCount())

	found, err = c.MarkActivityRead(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := c.MarkAllActivitiesRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, unread-1, n)
	assert.Zero(t, c.UnreadCount())
	assertCoherent(t, mem, c.Activities)
}

func TestDealWonRecordsActivity(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Deals.Create(ctx, models.Deal{ID: "d", Title: "Retainer", Value: decimal.NewFromInt(5000), Stage: models.StageNegotiation})
	require.NoError(t, err)

	d, found, err := c.AdvanceDeal(ctx, "d")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StageWon, d.Stage)

	latest := c.Activities.List()[0]
	assert.Equal(t, models.ActivityDealWon, latest.Type)
	assert.Equal(t, "Deal won: Retainer", latest.Title)

	before := c.Activities.Len()
	_, _, err = c.AdvanceDeal(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, before, c.Activities.Len(), "staying Won records nothing")

	_, found, err = c.AdvanceDeal(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPipelineSummary(t *testing.T) {
	c, _ := newTestCache(t)

	summary := c.PipelineSummary()
	require.Len(t, summary, len(models.DealStages))

	assert.Equal(t, models.StageLead, summary[0].Stage)
	assert.Equal(t, 1, summary[0].Count)
	assert.True(t, summary[0].Value.Equal(decimal.NewFromInt(28000)))
	assert.True(t, summary[2].Value.Equal(decimal.NewFromInt(12000)))
	assert.Zero(t, summary[4].Count)
}

func TestRevenueSummary(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	open, err := c.CreateInvoice(ctx, models.Invoice{Date: "2025-06-01", Amount: decimal.NewFromInt(400)})
	require.NoError(t, err)
	voided, err := c.CreateInvoice(ctx, models.Invoice{Date: "2025-06-02", Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)
	_, err = c.CancelInvoice(ctx, voided.ID)
	require.NoError(t, err)
	_, err = c.CreateInvoice(ctx, models.Invoice{Date: "2024-06-02", Amount: decimal.NewFromInt(999)})
	require.NoError(t, err)

	r := c.RevenueSummary(2025)
	assert.Equal(t, "1800.00", r.Paid.StringFixed(2))
	assert.Equal(t, open.Amount.StringFixed(2), r.Open.StringFixed(2))
	assert.Equal(t, "300.00", r.Cancelled.StringFixed(2))
	assert.Equal(t, "59.99", r.Expenses.StringFixed(2))
	assert.Equal(t, "1740.01", r.Net.StringFixed(2))
}
