package wrappers

import (
	"context"
	"fmt"

	"github.com/user/vulnscan-adk/pkg/classifier"
)

// GenerateRulesWrapper implements the Tool interface for feed classification
type GenerateRulesWrapper struct {
	Workspace *Workspace
}

func (g *GenerateRulesWrapper) Name() string {
	return "GenerateRules"
}

func (g *GenerateRulesWrapper) Description() string {
	return "Classifies records from the local vulnerability feed into simulation-only rules and merges them into the rule file without overwriting existing rules."
}

func (g *GenerateRulesWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (g *GenerateRulesWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	added, total, err := classifier.UpdateRuleFile(g.Workspace.FeedPath, g.Workspace.RulesPath, g.Workspace.logger())
	if err != nil {
		return fmt.Sprintf("Error generating rules: %v", err), nil
	}
	return fmt.Sprintf("Added %d new rule(s); %s now holds %d rule(s).", added, g.Workspace.RulesPath, total), nil
}
