// ABOUTME: Invoice MCP tool handlers
// ABOUTME: Implements list_invoices, next_invoice_number, create_invoice, pay_invoice and cancel_invoice
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

type InvoiceHandlers struct {
	svc *app.Service
}

func NewInvoiceHandlers(svc *app.Service) *InvoiceHandlers {
	return &InvoiceHandlers{svc: svc}
}

type InvoiceOutput struct {
	ID               string `json:"id"`
	Number           string `json:"number"`
	Date             string `json:"date"`
	ContactID        string `json:"contact_id"`
	Description      string `json:"description,omitempty"`
	Amount           string `json:"amount"`
	Type             string `json:"type"`
	IsPaid           bool   `json:"is_paid"`
	PaidDate         string `json:"paid_date,omitempty"`
	IsCancelled      bool   `json:"is_cancelled,omitempty"`
	CancelsInvoiceID string `json:"cancels_invoice_id,omitempty"`
}

type ListInvoicesInput struct {
	OpenOnly bool `json:"open_only,omitempty" jsonschema:"Only unpaid, uncancelled invoices"`
}

type ListInvoicesOutput struct {
	Invoices []InvoiceOutput `json:"invoices"`
}

func (h *InvoiceHandlers) ListInvoices(_ context.Context, _ *mcp.CallToolRequest, input ListInvoicesInput) (*mcp.CallToolResult, ListInvoicesOutput, error) {
	out := ListInvoicesOutput{Invoices: []InvoiceOutput{}}
	for _, inv := range h.svc.GetInvoices() {
		if input.OpenOnly && !inv.IsOpen() {
			continue
		}
		out.Invoices = append(out.Invoices, invoiceToOutput(inv))
	}
	return nil, out, nil
}

type NextInvoiceNumberInput struct {
	Year int `json:"year,omitempty" jsonschema:"Invoice year (default current year)"`
}

type NextInvoiceNumberOutput struct {
	Number string `json:"number"`
}

func (h *InvoiceHandlers) NextInvoiceNumber(_ context.Context, _ *mcp.CallToolRequest, input NextInvoiceNumberInput) (*mcp.CallToolResult, NextInvoiceNumberOutput, error) {
	return nil, NextInvoiceNumberOutput{Number: h.svc.NextInvoiceNumber(input.Year)}, nil
}

type CreateInvoiceInput struct {
	ContactID   string `json:"contact_id" jsonschema:"Billed contact ID (required)"`
	Amount      string `json:"amount" jsonschema:"Amount as a decimal string, e.g. 1250.00 (required)"`
	Date        string `json:"date,omitempty" jsonschema:"Invoice date YYYY-MM-DD (default today)"`
	Description string `json:"description,omitempty" jsonschema:"Line item description"`
}

func (h *InvoiceHandlers) CreateInvoice(ctx context.Context, _ *mcp.CallToolRequest, input CreateInvoiceInput) (*mcp.CallToolResult, InvoiceOutput, error) {
	if input.ContactID == "" {
		return nil, InvoiceOutput{}, fmt.Errorf("contact_id is required")
	}
	if _, ok := h.svc.Cache().Contacts.Get(input.ContactID); !ok {
		return nil, InvoiceOutput{}, fmt.Errorf("contact not found: %s", input.ContactID)
	}
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil {
		return nil, InvoiceOutput{}, fmt.Errorf("invalid amount %q: %w", input.Amount, err)
	}
	if !amount.IsPositive() {
		return nil, InvoiceOutput{}, fmt.Errorf("amount must be positive")
	}

	inv, err := h.svc.SaveInvoice(ctx, models.Invoice{
		ContactID:   input.ContactID,
		Amount:      amount,
		Date:        input.Date,
		Description: input.Description,
	})
	if err != nil {
		return nil, InvoiceOutput{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil, invoiceToOutput(inv), nil
}

type InvoiceIDInput struct {
	ID string `json:"id" jsonschema:"Invoice ID (required)"`
}

func (h *InvoiceHandlers) PayInvoice(ctx context.Context, _ *mcp.CallToolRequest, input InvoiceIDInput) (*mcp.CallToolResult, InvoiceOutput, error) {
	if input.ID == "" {
		return nil, InvoiceOutput{}, fmt.Errorf("id is required")
	}
	inv, err := h.svc.MarkInvoicePaid(ctx, input.ID, "")
	if err != nil {
		return nil, InvoiceOutput{}, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return nil, invoiceToOutput(inv), nil
}

// CancelInvoice returns the credit note that offsets the cancelled invoice.
func (h *InvoiceHandlers) CancelInvoice(ctx context.Context, _ *mcp.CallToolRequest, input InvoiceIDInput) (*mcp.CallToolResult, InvoiceOutput, error) {
	if input.ID == "" {
		return nil, InvoiceOutput{}, fmt.Errorf("id is required")
	}
	credit, err := h.svc.CancelInvoice(ctx, input.ID)
	if err != nil {
		return nil, InvoiceOutput{}, fmt.Errorf("failed to cancel invoice: %w", err)
	}
	return nil, invoiceToOutput(credit), nil
}

func invoiceToOutput(inv models.Invoice) InvoiceOutput {
	return InvoiceOutput{
		ID:               inv.ID,
		Number:           inv.Number,
		Date:             inv.Date,
		ContactID:        inv.ContactID,
		Description:      inv.Description,
		Amount:           inv.Amount.StringFixed(2),
		Type:             string(inv.Type),
		IsPaid:           inv.IsPaid,
		PaidDate:         inv.PaidDate,
		IsCancelled:      inv.IsCancelled,
		CancelsInvoiceID: inv.CancelsInvoiceID,
	}
}
