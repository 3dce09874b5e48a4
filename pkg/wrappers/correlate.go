package wrappers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/vulnscan-adk/pkg/correlate"
)

// CorrelateWrapper implements the Tool interface for semantic record search
type CorrelateWrapper struct {
	Workspace *Workspace
}

func (c *CorrelateWrapper) Name() string {
	return "CorrelateText"
}

func (c *CorrelateWrapper) Description() string {
	return "Finds the indexed vulnerability records most similar to a free-text description and shows any rule that shares the record id."
}

func (c *CorrelateWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Vulnerability description or advisory text.",
			},
			"k": map[string]interface{}{
				"type":        "integer",
				"description": "Number of records to return (default 5).",
			},
		},
		"required": []string{"text"},
	}
}

func (c *CorrelateWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	text := stringArg(args, "text")
	if text == "" {
		text = stringArg(args, "args")
	}
	k := intArg(args, "k", 5)

	eng, err := c.Workspace.Correlator()
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	progressOrNop(progress)("[Correlate] searching index...")
	candidates, err := eng.Correlate(ctx, text, k)
	if errors.Is(err, correlate.ErrEmptyInput) {
		return "Error: 'text' is required.", nil
	}
	if err != nil {
		return "", err
	}
	return FormatCandidates(candidates), nil
}

// FormatCandidates renders correlation results for display.
func FormatCandidates(candidates []correlate.Candidate) string {
	if len(candidates) == 0 {
		return "No related records found (the index is empty).\n"
	}
	var sb strings.Builder
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s (distance %.4f)\n", c.Rank, c.RecordID, c.Distance))
		sb.WriteString(fmt.Sprintf("   %s\n", c.Description))
		if c.Record != nil && c.Record.Severity != nil {
			score := ""
			if c.Record.CVSSScore != nil {
				score = fmt.Sprintf(" %.1f", *c.Record.CVSSScore)
			}
			sb.WriteString(fmt.Sprintf("   severity: %s%s\n", *c.Record.Severity, score))
		}
		if c.Rule != nil {
			sb.WriteString(fmt.Sprintf("   rule: %s [%s] %d pattern(s)\n", c.Rule.ID, c.Rule.Category, len(c.Rule.Matchers())))
		}
	}
	return sb.String()
}
