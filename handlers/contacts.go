// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements list_contacts and add_contact
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

type ContactHandlers struct {
	svc *app.Service
}

func NewContactHandlers(svc *app.Service) *ContactHandlers {
	return &ContactHandlers{svc: svc}
}

type ListContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive match on name, company or email"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ContactOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Company     string `json:"company,omitempty"`
	Email       string `json:"email,omitempty"`
	LastContact string `json:"last_contact,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type ListContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) ListContacts(_ context.Context, _ *mcp.CallToolRequest, input ListContactsInput) (*mcp.CallToolResult, ListContactsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	query := strings.ToLower(strings.TrimSpace(input.Query))

	out := ListContactsOutput{Contacts: []ContactOutput{}}
	for _, c := range h.svc.GetContacts() {
		if query != "" && !contactMatches(c, query) {
			continue
		}
		out.Contacts = append(out.Contacts, contactToOutput(c))
		if len(out.Contacts) == limit {
			break
		}
	}
	return nil, out, nil
}

func contactMatches(c models.Contact, query string) bool {
	for _, field := range []string{c.Name, c.Company, c.Email} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

type AddContactInput struct {
	Name    string `json:"name" jsonschema:"Contact name (required)"`
	Email   string `json:"email,omitempty" jsonschema:"Contact email address"`
	Company string `json:"company,omitempty" jsonschema:"Company name"`
	Role    string `json:"role,omitempty" jsonschema:"Job title"`
	Notes   string `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ContactOutput{}, fmt.Errorf("name is required")
	}

	c, err := h.svc.SaveContact(ctx, models.Contact{
		Name:    input.Name,
		Email:   input.Email,
		Company: input.Company,
		Role:    input.Role,
		Notes:   input.Notes,
	})
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(c), nil
}

func contactToOutput(c models.Contact) ContactOutput {
	return ContactOutput{
		ID:          c.ID,
		Name:        c.Name,
		Role:        c.Role,
		Company:     c.Company,
		Email:       c.Email,
		LastContact: c.LastContact,
		Notes:       c.Notes,
	}
}
