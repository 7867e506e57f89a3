// ABOUTME: Invoice and reporting operations exposed by the service
// ABOUTME: Numbering, payment, cancellation with credit notes and commission invoices
package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/harperreed/bizcrm/cache"
	"github.com/harperreed/bizcrm/models"
)

func (s *Service) GetInvoices() []models.Invoice {
	return s.cache.Invoices.List()
}

// SaveInvoice assigns the next number for the invoice's year when none is given.
func (s *Service) SaveInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	return s.cache.CreateInvoice(ctx, inv)
}

// UpdateInvoice edits an invoice in place. Its number never changes.
func (s *Service) UpdateInvoice(ctx context.Context, inv models.Invoice) (bool, error) {
	return s.cache.UpdateInvoice(ctx, inv)
}

// DeleteInvoice never removes an invoice: it cancels it and issues a credit
// note, so the number is never handed out again. A missing ID reports false
// and an already cancelled invoice reports true without a second credit note.
func (s *Service) DeleteInvoice(ctx context.Context, id string) (bool, error) {
	_, err := s.cache.CancelInvoice(ctx, id)
	switch {
	case errors.Is(err, cache.ErrInvoiceNotFound):
		return false, nil
	case errors.Is(err, cache.ErrAlreadyCancelled):
		return true, nil
	case err != nil:
		return true, err
	}
	return true, nil
}

// NextInvoiceNumber previews the number the next invoice in year would get.
func (s *Service) NextInvoiceNumber(year int) string {
	if year == 0 {
		year = s.now().Year()
	}
	return s.cache.NextInvoiceNumber(year)
}

func (s *Service) MarkInvoicePaid(ctx context.Context, id, date string) (models.Invoice, error) {
	return s.cache.MarkInvoicePaid(ctx, id, date)
}

func (s *Service) MarkInvoiceSent(ctx context.Context, id, date string) (models.Invoice, error) {
	return s.cache.MarkInvoiceSent(ctx, id, date)
}

// CancelInvoice cancels id and returns the credit note issued for it.
func (s *Service) CancelInvoice(ctx context.Context, id string) (models.Invoice, error) {
	return s.cache.CancelInvoice(ctx, id)
}

func (s *Service) CreateCommissionInvoice(ctx context.Context, contactID string, sourceIDs []string, rate decimal.Decimal) (models.Invoice, error) {
	return s.cache.CreateCommissionInvoice(ctx, contactID, sourceIDs, rate)
}

func (s *Service) PipelineSummary() []cache.StageTotal {
	return s.cache.PipelineSummary()
}

func (s *Service) RevenueSummary(year int) cache.Revenue {
	if year == 0 {
		year = s.now().Year()
	}
	return s.cache.RevenueSummary(year)
}
