// ABOUTME: MCP prompt templates built from live CRM data
// ABOUTME: Follow-up suggestions, pipeline review and payment reminders
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
)

// Prompts lists the prompt templates served by GetPrompt.
var Prompts = []*mcp.Prompt{
	{
		Name:        "follow-up-suggestions",
		Description: "Contacts that have not been contacted recently",
		Arguments: []*mcp.PromptArgument{
			{Name: "days_since_contact", Description: "Days without contact (default 30)"},
		},
	},
	{Name: "pipeline-review", Description: "Review the deal pipeline stage by stage"},
	{Name: "payment-reminders", Description: "Draft reminders for open invoices"},
}

type PromptHandlers struct {
	svc *app.Service
	now func() time.Time
}

func NewPromptHandlers(svc *app.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(_ context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "follow-up-suggestions":
		return h.followUpSuggestions(request.Params.Arguments)
	case "pipeline-review":
		return h.pipelineReview()
	case "payment-reminders":
		return h.paymentReminders()
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) followUpSuggestions(args map[string]string) (*mcp.GetPromptResult, error) {
	days := 30
	if d, ok := args["days_since_contact"]; ok && d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid days_since_contact: %s", d)
		}
		days = n
	}
	cutoff := h.now().AddDate(0, 0, -days).Format(time.DateOnly)

	var text strings.Builder
	fmt.Fprintf(&text, "Contacts that may need follow-up (no contact in %d+ days):\n\n", days)

	count := 0
	for _, c := range h.svc.GetContacts() {
		switch {
		case c.LastContact == "":
			fmt.Fprintf(&text, "- %s, %s (never contacted)\n", c.Name, c.Company)
		case c.LastContact < cutoff:
			fmt.Fprintf(&text, "- %s, %s (last contact %s)\n", c.Name, c.Company, c.LastContact)
		default:
			continue
		}
		count++
	}
	if count == 0 {
		text.WriteString("All contacts have been contacted recently.\n")
	}

	text.WriteString("\nPlease:")
	text.WriteString("\n1. Prioritize which contacts to reach out to first")
	text.WriteString("\n2. Suggest personalized outreach approaches for each")

	return userPrompt("Follow-up suggestions for contacts", text.String()), nil
}

func (h *PromptHandlers) pipelineReview() (*mcp.GetPromptResult, error) {
	var text strings.Builder
	text.WriteString("Current deal pipeline:\n\n")
	for _, st := range h.svc.PipelineSummary() {
		fmt.Fprintf(&text, "- %s: %d deals, %s total\n", st.Stage, st.Count, st.Value.StringFixed(2))
	}
	text.WriteString("\nDeals:\n")
	for _, d := range h.svc.GetDeals() {
		fmt.Fprintf(&text, "- %s (%s, %s)", d.Title, d.Stage, d.Value.StringFixed(2))
		if d.DueDate != "" {
			fmt.Fprintf(&text, " due %s", d.DueDate)
		}
		text.WriteString("\n")
	}
	text.WriteString("\nIdentify stalled deals and suggest the next step for each.")

	return userPrompt("Pipeline review", text.String()), nil
}

func (h *PromptHandlers) paymentReminders() (*mcp.GetPromptResult, error) {
	contacts := map[string]string{}
	for _, c := range h.svc.GetContacts() {
		contacts[c.ID] = c.Name
	}

	var text strings.Builder
	text.WriteString("Open invoices:\n\n")
	count := 0
	for _, inv := range h.svc.GetInvoices() {
		if !inv.IsOpen() {
			continue
		}
		fmt.Fprintf(&text, "- %s dated %s, %s, billed to %s\n", inv.Number, inv.Date, inv.Amount.StringFixed(2), contacts[inv.ContactID])
		count++
	}
	if count == 0 {
		text.WriteString("No open invoices.\n")
	}
	text.WriteString("\nDraft a short, friendly payment reminder for each open invoice.")

	return userPrompt("Payment reminders", text.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
