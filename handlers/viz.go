// ABOUTME: GraphViz and dashboard MCP handlers
// ABOUTME: Provides generate_graph and dashboard tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/viz"
)

type VizHandlers struct {
	svc *app.Service
}

func NewVizHandlers(svc *app.Service) *VizHandlers {
	return &VizHandlers{svc: svc}
}

type GenerateGraphInput struct {
	Type      string `json:"type" jsonschema:"Graph type: contacts or pipeline"`
	ContactID string `json:"contact_id,omitempty" jsonschema:"Limit a contacts graph to one contact"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}
	if input.ContactID != "" && input.Type != app.GraphContacts {
		return nil, GenerateGraphOutput{}, fmt.Errorf("contact_id only applies to contacts graphs")
	}

	dot, err := h.svc.Graph(ctx, input.Type, input.ContactID, viz.FormatDOT)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}
	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

type DashboardInput struct{}

type DashboardOutput struct {
	Text          string `json:"text"`
	OpenTasks     int    `json:"open_tasks"`
	OverdueTasks  int    `json:"overdue_tasks"`
	OpenInvoices  int    `json:"open_invoices"`
	Receivables   string `json:"receivables"`
	PipelineValue string `json:"pipeline_value"`
	StaleContacts int    `json:"stale_contacts"`
	OverdueDeals  int    `json:"overdue_deals"`
}

func (h *VizHandlers) Dashboard(_ context.Context, _ *mcp.CallToolRequest, _ DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	stats := h.svc.Dashboard()
	return nil, DashboardOutput{
		Text:          viz.RenderDashboard(stats),
		OpenTasks:     stats.OpenTasks,
		OverdueTasks:  stats.OverdueTasks,
		OpenInvoices:  stats.OpenInvoices,
		Receivables:   stats.Receivables.StringFixed(2),
		PipelineValue: stats.PipelineValue.StringFixed(2),
		StaleContacts: len(stats.StaleContacts),
		OverdueDeals:  len(stats.OverdueDeals),
	}, nil
}
