// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements list_deals and advance_deal over the fixed pipeline stages
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

type DealHandlers struct {
	svc *app.Service
}

func NewDealHandlers(svc *app.Service) *DealHandlers {
	return &DealHandlers{svc: svc}
}

type DealOutput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Value     string `json:"value"`
	Stage     string `json:"stage"`
	ContactID string `json:"contact_id,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
}

type ListDealsInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Filter by stage: Lead, Contacted, Proposal, Negotiation, Won"`
}

type ListDealsOutput struct {
	Deals []DealOutput `json:"deals"`
}

func (h *DealHandlers) ListDeals(_ context.Context, _ *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, ListDealsOutput, error) {
	stage := models.DealStage(input.Stage)
	if stage != "" && !stage.Valid() {
		return nil, ListDealsOutput{}, fmt.Errorf("invalid stage: %s", input.Stage)
	}

	out := ListDealsOutput{Deals: []DealOutput{}}
	for _, d := range h.svc.GetDeals() {
		if stage != "" && d.Stage != stage {
			continue
		}
		out.Deals = append(out.Deals, dealToOutput(d))
	}
	return nil, out, nil
}

type AdvanceDealInput struct {
	ID string `json:"id" jsonschema:"Deal ID (required)"`
}

func (h *DealHandlers) AdvanceDeal(ctx context.Context, _ *mcp.CallToolRequest, input AdvanceDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("id is required")
	}
	d, found, err := h.svc.AdvanceDeal(ctx, input.ID)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to advance deal: %w", err)
	}
	if !found {
		return nil, DealOutput{}, fmt.Errorf("deal not found: %s", input.ID)
	}
	return nil, dealToOutput(d), nil
}

func dealToOutput(d models.Deal) DealOutput {
	return DealOutput{
		ID:        d.ID,
		Title:     d.Title,
		Value:     d.Value.StringFixed(2),
		Stage:     string(d.Stage),
		ContactID: d.ContactID,
		DueDate:   d.DueDate,
	}
}
