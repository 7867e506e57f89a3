// ABOUTME: Invoice operations on top of the invoice collection
// ABOUTME: Numbering, payment, soft-cancel with credit notes and commission roll-ups
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harperreed/bizcrm/models"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrDuplicateNumber  = errors.New("invoice number already exists")
	ErrAlreadyCancelled = errors.New("invoice already cancelled")
	ErrCreditNote       = errors.New("credit notes cannot be changed")
	ErrNumberChanged    = errors.New("invoice numbers cannot be changed")
)

// NextInvoiceNumber returns the next free number for year.
func (c *Cache) NextInvoiceNumber(year int) string {
	return models.NextInvoiceNumber(c.Invoices.List(), year)
}

// CreateInvoice stores a new invoice. A missing ID, number, date or type is
// filled in; the number is derived from the invoice date's year.
func (c *Cache) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if inv.ID == "" {
		inv.ID = models.NewID()
	}
	if inv.Date == "" {
		inv.Date = c.today()
	}
	if inv.Type == "" {
		inv.Type = models.InvoiceNormal
	}

	var createErr error
	err := c.Invoices.Mutate(ctx, func(items []models.Invoice) ([]models.Invoice, bool) {
		if inv.Number == "" {
			inv.Number = models.NextInvoiceNumber(items, yearOf(inv.Date, c.now()))
		}
		if slices.ContainsFunc(items, func(existing models.Invoice) bool { return existing.Number == inv.Number }) {
			createErr = fmt.Errorf("%w: %s", ErrDuplicateNumber, inv.Number)
			return nil, false
		}
		return slices.Insert(items, 0, inv), true
	})
	if err != nil {
		return models.Invoice{}, err
	}
	if createErr != nil {
		return models.Invoice{}, createErr
	}
	return inv, nil
}

// UpdateInvoice replaces the stored invoice with the same ID. A missing ID is
// a no-op reporting false. An empty number keeps the stored one; any other
// number change is rejected, with ErrDuplicateNumber when it collides with
// another invoice. Cancellation and credit-note links always come from the
// stored copy, and credit notes cannot be edited.
func (c *Cache) UpdateInvoice(ctx context.Context, inv models.Invoice) (bool, error) {
	var (
		found     bool
		updateErr error
	)
	err := c.Invoices.Mutate(ctx, func(items []models.Invoice) ([]models.Invoice, bool) {
		i := slices.IndexFunc(items, func(existing models.Invoice) bool { return existing.ID == inv.ID })
		if i < 0 {
			return nil, false
		}
		found = true
		stored := items[i]

		if inv.Number == "" {
			inv.Number = stored.Number
		}
		switch {
		case stored.IsCreditNote():
			updateErr = ErrCreditNote
		case inv.Number != stored.Number && slices.ContainsFunc(items, func(other models.Invoice) bool { return other.Number == inv.Number }):
			updateErr = fmt.Errorf("%w: %s", ErrDuplicateNumber, inv.Number)
		case inv.Number != stored.Number:
			updateErr = fmt.Errorf("%w: %s", ErrNumberChanged, stored.Number)
		}
		if updateErr != nil {
			return nil, false
		}

		inv.IsCancelled = stored.IsCancelled
		inv.CancelsInvoiceID = stored.CancelsInvoiceID
		items[i] = inv
		return items, true
	})
	if err != nil {
		return found, err
	}
	return found, updateErr
}

// MarkInvoicePaid sets the paid flag and date (today when empty) and records
// an activity.
func (c *Cache) MarkInvoicePaid(ctx context.Context, id, date string) (models.Invoice, error) {
	if date == "" {
		date = c.today()
	}
	inv, err := c.changeInvoice(ctx, id, func(inv *models.Invoice) error {
		if inv.IsCancelled {
			return ErrAlreadyCancelled
		}
		inv.IsPaid = true
		inv.PaidDate = date
		return nil
	})
	if err != nil {
		return inv, err
	}

	c.recordBestEffort(ctx, models.ActivityInvoicePaid,
		"Invoice "+inv.Number+" paid",
		fmt.Sprintf("%s received", inv.Amount.StringFixed(2)))
	return inv, nil
}

// MarkInvoiceSent records when the invoice went out.
func (c *Cache) MarkInvoiceSent(ctx context.Context, id, date string) (models.Invoice, error) {
	if date == "" {
		date = c.today()
	}
	return c.changeInvoice(ctx, id, func(inv *models.Invoice) error {
		if inv.IsCancelled {
			return ErrAlreadyCancelled
		}
		inv.SentDate = date
		return nil
	})
}

// CancelInvoice soft-cancels an invoice and appends its credit note. The
// original is never removed.
func (c *Cache) CancelInvoice(ctx context.Context, id string) (models.Invoice, error) {
	var (
		credit    models.Invoice
		cancelErr error
	)
	err := c.Invoices.Mutate(ctx, func(items []models.Invoice) ([]models.Invoice, bool) {
		i := slices.IndexFunc(items, func(inv models.Invoice) bool { return inv.ID == id })
		switch {
		case i < 0:
			cancelErr = ErrInvoiceNotFound
		case items[i].IsCancelled:
			cancelErr = ErrAlreadyCancelled
		case items[i].IsCreditNote():
			cancelErr = ErrCreditNote
		}
		if cancelErr != nil {
			return nil, false
		}

		today := c.today()
		items[i].IsCancelled = true
		credit = models.CreditNoteFor(items[i], models.NextInvoiceNumber(items, yearOf(today, c.now())), today)
		return slices.Insert(items, 0, credit), true
	})
	if err != nil {
		return models.Invoice{}, err
	}
	if cancelErr != nil {
		return models.Invoice{}, cancelErr
	}

	c.recordBestEffort(ctx, models.ActivityInvoiceVoid,
		"Invoice cancelled",
		"Credit note "+credit.Number+" created")
	return credit, nil
}

// CreateCommissionInvoice bills rate times the sum of the source invoices.
// Sources must exist and must not be cancelled.
func (c *Cache) CreateCommissionInvoice(ctx context.Context, contactID string, sourceIDs []string, rate decimal.Decimal) (models.Invoice, error) {
	if len(sourceIDs) == 0 {
		return models.Invoice{}, fmt.Errorf("commission invoice needs at least one source invoice")
	}

	sources := make([]models.Invoice, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		src, ok := c.Invoices.Get(id)
		if !ok {
			return models.Invoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
		}
		if src.IsCancelled {
			return models.Invoice{}, fmt.Errorf("%w: %s", ErrAlreadyCancelled, src.Number)
		}
		sources = append(sources, src)
	}

	return c.CreateInvoice(ctx, models.Invoice{
		ContactID:        contactID,
		Description:      fmt.Sprintf("Commission %s%% on %d invoices", rate.Mul(decimal.NewFromInt(100)).String(), len(sources)),
		Amount:           models.CommissionTotal(sources, rate),
		Type:             models.InvoiceCommission,
		SourceInvoiceIDs: slices.Clone(sourceIDs),
		CommissionRate:   rate,
	})
}

// changeInvoice applies fn to one invoice under the collection lock.
func (c *Cache) changeInvoice(ctx context.Context, id string, fn func(*models.Invoice) error) (models.Invoice, error) {
	var (
		out       models.Invoice
		changeErr error
	)
	err := c.Invoices.Mutate(ctx, func(items []models.Invoice) ([]models.Invoice, bool) {
		i := slices.IndexFunc(items, func(inv models.Invoice) bool { return inv.ID == id })
		if i < 0 {
			changeErr = ErrInvoiceNotFound
			return nil, false
		}
		if items[i].IsCreditNote() {
			changeErr = ErrCreditNote
			return nil, false
		}
		if changeErr = fn(&items[i]); changeErr != nil {
			return nil, false
		}
		out = items[i]
		return items, true
	})
	if err != nil {
		return models.Invoice{}, err
	}
	return out, changeErr
}

func (c *Cache) today() string {
	return c.now().Format(time.DateOnly)
}

// yearOf returns the year of a YYYY-MM-DD date, or fallback's year.
func yearOf(date string, fallback time.Time) int {
	if t, err := time.Parse(time.DateOnly, date); err == nil {
		return t.Year()
	}
	return fallback.Year()
}
