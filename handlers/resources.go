// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only JSON views of contacts, deals, tasks, invoices and the pipeline via bizcrm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

const resourceScheme = "bizcrm://"

// Resources lists the fixed resource URIs served by ReadResource.
var Resources = []*mcp.Resource{
	{URI: resourceScheme + "contacts", Name: "contacts", Description: "All contacts", MIMEType: "application/json"},
	{URI: resourceScheme + "deals", Name: "deals", Description: "All deals", MIMEType: "application/json"},
	{URI: resourceScheme + "tasks", Name: "tasks", Description: "All tasks as cached locally", MIMEType: "application/json"},
	{URI: resourceScheme + "invoices", Name: "invoices", Description: "All invoices and credit notes", MIMEType: "application/json"},
	{URI: resourceScheme + "pipeline", Name: "pipeline", Description: "Deal count and value per stage", MIMEType: "application/json"},
}

// ContactTemplate serves a single contact with its deals, tasks and invoices.
var ContactTemplate = &mcp.ResourceTemplate{
	URITemplate: resourceScheme + "contacts/{id}",
	Name:        "contact",
	Description: "One contact with related deals, tasks and invoices",
	MIMEType:    "application/json",
}

type ResourceHandlers struct {
	svc *app.Service
}

func NewResourceHandlers(svc *app.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(_ context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "contacts":
		if len(parts) == 1 {
			return jsonResource(uri, h.svc.GetContacts())
		}
		view, ok := h.contactView(parts[1])
		if !ok {
			return nil, fmt.Errorf("contact not found: %s", parts[1])
		}
		return jsonResource(uri, view)

	case "deals":
		return jsonResource(uri, h.svc.GetDeals())

	case "tasks":
		return jsonResource(uri, h.svc.Cache().Tasks.List())

	case "invoices":
		return jsonResource(uri, h.svc.GetInvoices())

	case "pipeline":
		return jsonResource(uri, h.svc.PipelineSummary())

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

type contactView struct {
	models.Contact
	Deals    []models.Deal    `json:"deals"`
	Tasks    []models.Task    `json:"tasks"`
	Invoices []models.Invoice `json:"invoices"`
}

func (h *ResourceHandlers) contactView(id string) (contactView, bool) {
	c, ok := h.svc.Cache().Contacts.Get(id)
	if !ok {
		return contactView{}, false
	}
	view := contactView{Contact: c, Deals: []models.Deal{}, Tasks: []models.Task{}, Invoices: []models.Invoice{}}
	for _, d := range h.svc.GetDeals() {
		if d.ContactID == id {
			view.Deals = append(view.Deals, d)
		}
	}
	for _, t := range h.svc.Cache().Tasks.List() {
		if t.ContactID == id {
			view.Tasks = append(view.Tasks, t)
		}
	}
	for _, inv := range h.svc.GetInvoices() {
		if inv.ContactID == id {
			view.Invoices = append(view.Invoices, inv)
		}
	}
	return view, true
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
