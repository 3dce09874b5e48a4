package wrappers

import (
	"context"

	"github.com/user/vulnscan-adk/pkg/engine"
)

// GraphViewerWrapper implements the Tool interface for viewing session findings
type GraphViewerWrapper struct {
	Graph *engine.FindingGraph
}

func (g *GraphViewerWrapper) Name() string {
	return "ShowFindings"
}

func (g *GraphViewerWrapper) Description() string {
	return "Displays every finding collected in this session, grouped by rule, including files that could not be read."
}

func (g *GraphViewerWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (g *GraphViewerWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if g.Graph == nil {
		return "Error: finding graph not initialized.", nil
	}
	if g.Graph.Len() == 0 {
		return "No findings yet. Use ScanFiles first.", nil
	}
	return g.Graph.GetReport(), nil
}
