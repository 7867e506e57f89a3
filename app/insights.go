// ABOUTME: Dashboard and graph views over the cache
// ABOUTME: Thin wrappers that pin the configured timezone and clock
package app

import (
	"context"
	"fmt"

	"github.com/harperreed/bizcrm/viz"
)

// Graph kinds accepted by Graph.
const (
	GraphContacts = "contacts"
	GraphPipeline = "pipeline"
)

// Dashboard summarizes pipeline, workload and receivables as of today.
func (s *Service) Dashboard() *viz.DashboardStats {
	return viz.GenerateDashboardStats(s.cache, s.now().In(s.loc))
}

// Graph renders the contacts network (optionally one contact) or the pipeline.
func (s *Service) Graph(ctx context.Context, kind, contactID string, format viz.Format) (string, error) {
	g := viz.NewGraphGenerator(s.cache)
	switch kind {
	case GraphContacts:
		return g.GenerateContactGraph(ctx, contactID, format)
	case GraphPipeline:
		return g.GeneratePipelineGraph(ctx, format)
	}
	return "", fmt.Errorf("unknown graph type: %s (valid types: contacts, pipeline)", kind)
}
