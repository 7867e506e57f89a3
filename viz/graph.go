// ABOUTME: GraphViz rendering of contacts, companies, deals and invoices
// ABOUTME: Produces DOT or SVG for a single contact's network or the whole pipeline
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/bizcrm/cache"
	"github.com/harperreed/bizcrm/models"
)

// Format is a graph output format.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "dot" or "svg"; empty means dot.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown graph format %q (valid: dot, svg)", s)
}

var stageColors = map[models.DealStage]string{
	models.StageLead:        "lightgrey",
	models.StageContacted:   "lightyellow",
	models.StageProposal:    "khaki",
	models.StageNegotiation: "orange",
	models.StageWon:         "palegreen",
}

type GraphGenerator struct {
	cache *cache.Cache
}

func NewGraphGenerator(c *cache.Cache) *GraphGenerator {
	return &GraphGenerator{cache: c}
}

// GenerateContactGraph draws contacts with their company, deals and invoices.
// An empty contactID draws every contact.
func (g *GraphGenerator) GenerateContactGraph(ctx context.Context, contactID string, format Format) (string, error) {
	contacts := g.cache.Contacts.List()
	if contactID != "" {
		contact, ok := g.cache.Contacts.Get(contactID)
		if !ok {
			return "", fmt.Errorf("contact %s not found", contactID)
		}
		contacts = []models.Contact{contact}
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel("Contacts")
		graph.SetRankDir(cgraph.LRRank)

		companies := make(map[string]*cgraph.Node)
		contactNodes := make(map[string]*cgraph.Node)
		for _, contact := range contacts {
			node, err := graph.CreateNodeByName("contact_" + contact.ID)
			if err != nil {
				return fmt.Errorf("failed to create contact node: %w", err)
			}
			node.SetLabel(contact.Name)
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")
			contactNodes[contact.ID] = node

			if contact.Company == "" {
				continue
			}
			company, ok := companies[contact.Company]
			if !ok {
				company, err = graph.CreateNodeByName("company_" + contact.Company)
				if err != nil {
					return fmt.Errorf("failed to create company node: %w", err)
				}
				company.SetLabel(contact.Company)
				company.SetShape("box")
				company.SetStyle("filled")
				company.SetFillColor("lightblue")
				companies[contact.Company] = company
			}
			edge, err := graph.CreateEdgeByName("works_at_"+contact.ID, node, company)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("works at")
			edge.SetStyle("dashed")
		}

		for _, deal := range g.cache.Deals.List() {
			owner, ok := contactNodes[deal.ContactID]
			if !ok {
				continue
			}
			node, err := dealNode(graph, deal)
			if err != nil {
				return err
			}
			if _, err := graph.CreateEdgeByName("deal_"+deal.ID, owner, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}

		for _, inv := range g.cache.Invoices.List() {
			owner, ok := contactNodes[inv.ContactID]
			if !ok {
				continue
			}
			node, err := graph.CreateNodeByName("invoice_" + inv.ID)
			if err != nil {
				return fmt.Errorf("failed to create invoice node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", inv.Number, inv.Amount.StringFixed(2)))
			node.SetShape("note")
			node.SetStyle("filled")
			node.SetFillColor(invoiceColor(inv))
			edge, err := graph.CreateEdgeByName("billed_"+inv.ID, owner, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dotted")
		}
		return nil
	})
}

// GeneratePipelineGraph chains the stages left to right with each deal
// hanging off its current stage.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, format Format) (string, error) {
	summary := g.cache.PipelineSummary()
	deals := g.cache.Deals.List()

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel("Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		stages := make(map[models.DealStage]*cgraph.Node)
		var prev *cgraph.Node
		for _, st := range summary {
			node, err := graph.CreateNodeByName("stage_" + string(st.Stage))
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%d deals, %s", st.Stage, st.Count, st.Value.StringFixed(2)))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor(stageColors[st.Stage])
			stages[st.Stage] = node

			if prev != nil {
				if _, err := graph.CreateEdgeByName("next_"+string(st.Stage), prev, node); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
			prev = node
		}

		for _, deal := range deals {
			stage, ok := stages[deal.Stage]
			if !ok {
				continue
			}
			node, err := dealNode(graph, deal)
			if err != nil {
				return err
			}
			edge, err := graph.CreateEdgeByName("in_"+deal.ID, stage, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dotted")
			edge.SetDir("none")
		}
		return nil
	})
}

func dealNode(graph *cgraph.Graph, deal models.Deal) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName("deal_" + deal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create deal node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n%s (%s)", deal.Title, deal.Value.StringFixed(2), deal.Stage))
	node.SetShape("diamond")
	node.SetStyle("filled")
	node.SetFillColor(stageColors[deal.Stage])
	return node, nil
}

func invoiceColor(inv models.Invoice) string {
	switch {
	case inv.IsCancelled || inv.IsCreditNote():
		return "lightgrey"
	case inv.IsPaid:
		return "palegreen"
	}
	return "orange"
}

func render(ctx context.Context, format Format, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.Format(format), &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
