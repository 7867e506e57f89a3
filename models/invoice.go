// ABOUTME: Invoice model, invoice number generation and commission roll-ups
// ABOUTME: Numbers are YYYY-NNN and always continue from the highest sequence of the year
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Invoice is a numbered bill to a contact. Invoices are never deleted:
// cancelling sets IsCancelled and issues a credit note with a negated amount
// that points back through CancelsInvoiceID.
type Invoice struct {
	ID               string          `json:"id"`
	Number           string          `json:"invoiceNumber"`
	Date             string          `json:"date"` // YYYY-MM-DD
	ContactID        string          `json:"contactId"`
	Description      string          `json:"description,omitempty"`
	Amount           decimal.Decimal `json:"amount"` // negative for credit notes
	IsPaid           bool            `json:"isPaid"`
	PaidDate         string          `json:"paidDate,omitempty"`
	SentDate         string          `json:"sentDate,omitempty"`
	IsCancelled      bool            `json:"isCancelled,omitempty"`
	Type             InvoiceType     `json:"type,omitempty"`
	CancelsInvoiceID string          `json:"cancelsInvoiceId,omitempty"`
	SourceInvoiceIDs []string        `json:"sourceInvoiceIds,omitempty"`
	CommissionRate   decimal.Decimal `json:"commissionRate,omitzero"`
}

// InvoiceType separates ordinary invoices from commission roll-ups.
type InvoiceType string

const (
	InvoiceNormal     InvoiceType = "normal"
	InvoiceCommission InvoiceType = "commission"
)

// IsCreditNote reports whether the invoice reverses an earlier one.
func (i Invoice) IsCreditNote() bool {
	return i.Amount.IsNegative()
}

// IsOpen reports whether the invoice still awaits payment.
func (i Invoice) IsOpen() bool {
	return !i.IsPaid && !i.IsCancelled && !i.IsCreditNote()
}

// firstSequence is the sequence assigned when a year has no invoices yet.
const firstSequence = 101

// ParseInvoiceNumber splits "2025-104" into year and sequence.
func ParseInvoiceNumber(number string) (year, seq int, ok bool) {
	y, s, found := strings.Cut(strings.TrimSpace(number), "-")
	if !found {
		return 0, 0, false
	}
	year, err := strconv.Atoi(y)
	if err != nil || len(y) != 4 {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(s)
	if err != nil || seq < 0 {
		return 0, 0, false
	}
	return year, seq, true
}

// NextInvoiceNumber returns max(sequence for year)+1, never count+1, so gaps
// left by removed drafts are not reused.
func NextInvoiceNumber(invoices []Invoice, year int) string {
	maxSeq := firstSequence - 1
	for _, inv := range invoices {
		y, seq, ok := ParseInvoiceNumber(inv.Number)
		if !ok || y != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return fmt.Sprintf("%04d-%d", year, maxSeq+1)
}

// CreditNoteFor builds the reversing document for a cancelled invoice.
func CreditNoteFor(original Invoice, number, date string) Invoice {
	return Invoice{
		ID:               NewID(),
		Number:           number,
		Date:             date,
		ContactID:        original.ContactID,
		Description:      "Cancellation of invoice " + original.Number,
		Amount:           original.Amount.Neg(),
		Type:             original.Type,
		CancelsInvoiceID: original.ID,
	}
}

// CommissionTotal sums the commission due on the given source invoices.
func CommissionTotal(sources []Invoice, rate decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, src := range sources {
		total = total.Add(src.Amount)
	}
	return total.Mul(rate).Round(2)
}
