package wrappers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/vulnscan-adk/pkg/engine"
	"github.com/user/vulnscan-adk/pkg/scanner"
)

const DefaultSnapshotPath = ".vulnscan-baseline.json"

// SaveSnapshotWrapper implements the Tool interface for saving the current findings
type SaveSnapshotWrapper struct {
	Graph *engine.FindingGraph
}

func (s *SaveSnapshotWrapper) Name() string {
	return "SaveBaseline"
}

func (s *SaveSnapshotWrapper) Description() string {
	return "Saves the current findings to a baseline report for future comparison."
}

func (s *SaveSnapshotWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "Optional filename for the baseline (default: " + DefaultSnapshotPath + ")",
			},
		},
	}
}

func (s *SaveSnapshotWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if s.Graph == nil {
		return "Error: finding graph not initialized.", nil
	}

	filename := DefaultSnapshotPath
	if val := stringArg(args, "filename"); val != "" {
		filename = val
	}

	if err := s.Graph.SaveSnapshot(filename); err != nil {
		return fmt.Sprintf("Error saving baseline: %v", err), nil
	}
	return fmt.Sprintf("Successfully saved %d findings to baseline '%s'.", s.Graph.Len(), filename), nil
}

// DiffSnapshotWrapper implements the Tool interface for comparing current findings with a baseline
type DiffSnapshotWrapper struct {
	Graph *engine.FindingGraph
}

func (d *DiffSnapshotWrapper) Name() string {
	return "CompareWithBaseline"
}

func (d *DiffSnapshotWrapper) Description() string {
	return "Compares the current findings against a previously saved baseline to identify New, Fixed, and Unchanged findings."
}

func (d *DiffSnapshotWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "Optional filename of the baseline to compare against (default: " + DefaultSnapshotPath + ")",
			},
		},
	}
}

func (d *DiffSnapshotWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if d.Graph == nil {
		return "Error: finding graph not initialized.", nil
	}

	filename := DefaultSnapshotPath
	if val := stringArg(args, "filename"); val != "" {
		filename = val
	}

	baseline := engine.NewFindingGraph()
	if err := baseline.LoadSnapshot(filename); err != nil {
		return fmt.Sprintf("Error loading baseline '%s': %v. Have you scanned and saved a baseline before?", filename, err), nil
	}

	diff := d.Graph.CompareSnapshot(baseline)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Baseline Comparison (vs %s):\n", filename))
	sb.WriteString("--------------------------------------------------\n")

	sb.WriteString(fmt.Sprintf("NEW: %d\n", len(diff.New)))
	for _, f := range diff.New {
		sb.WriteString("  [+] " + describe(f) + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("FIXED: %d\n", len(diff.Fixed)))
	for _, f := range diff.Fixed {
		sb.WriteString("  [-] " + describe(f) + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("UNCHANGED: %d\n", len(diff.Unchanged)))
	for i, f := range diff.Unchanged {
		if i == 10 {
			sb.WriteString(fmt.Sprintf("  ... and %d more.\n", len(diff.Unchanged)-10))
			break
		}
		sb.WriteString("  [=] " + describe(f) + "\n")
	}

	return sb.String(), nil
}

func describe(f scanner.Finding) string {
	if f.Missing() {
		return "missing file " + f.File
	}
	return fmt.Sprintf("%s in %s (%q)", *f.RuleID, f.File, *f.MatchedPattern)
}
