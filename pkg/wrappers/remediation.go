package wrappers

import (
	"context"
	"fmt"

	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/simulate"
)

// SimulationWrapper implements the Tool interface for describing simulation requests
type SimulationWrapper struct {
	Workspace *Workspace
}

func (s *SimulationWrapper) Name() string {
	return "PlanSimulation"
}

func (s *SimulationWrapper) Description() string {
	return "Describes the requests an exploit simulation would send to a target URL using simulation-only rules. Nothing is sent."
}

func (s *SimulationWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"target": map[string]interface{}{
				"type":        "string",
				"description": "Absolute http(s) URL of a test target (default: " + simulate.DefaultTarget + ").",
			},
			"rule_id": map[string]interface{}{
				"type":        "string",
				"description": "Limit the plan to a single rule.",
			},
		},
	}
}

func (s *SimulationWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	target := stringArg(args, "target")
	set, _, _, err := s.Workspace.Rules()
	if err != nil {
		return fmt.Sprintf("Error loading rules: %v", err), nil
	}
	if id := stringArg(args, "rule_id"); id != "" {
		r, ok := set.Get(id)
		if !ok {
			return fmt.Sprintf("Error: rule %s not found.", id), nil
		}
		set = rules.NewSet(r)
	}

	reqs, err := simulate.Plan(target, set)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	if len(reqs) == 0 {
		return "No simulation-only rules with payloads are loaded.", nil
	}
	return simulate.RenderPlan(target, reqs)
}
