package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/user/vulnscan-adk/pkg/report"
	"github.com/user/vulnscan-adk/pkg/scanner"
)

// FindingGraph accumulates findings across scans in one session and relates
// files to the rules that matched them.
type FindingGraph struct {
	mu       sync.RWMutex
	findings []scanner.Finding
	index    map[string]int
}

func NewFindingGraph() *FindingGraph {
	return &FindingGraph{index: make(map[string]int)}
}

// AddFindings ingests findings in order. A finding already present for the
// same file, rule and pattern is replaced in place.
func (g *FindingGraph) AddFindings(newFindings []scanner.Finding) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, f := range newFindings {
		k := f.Key()
		if i, ok := g.index[k]; ok {
			g.findings[i] = f
			continue
		}
		g.index[k] = len(g.findings)
		g.findings = append(g.findings, f)
	}
}

// Findings returns a copy of the accumulated findings.
func (g *FindingGraph) Findings() []scanner.Finding {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]scanner.Finding(nil), g.findings...)
}

func (g *FindingGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.findings)
}

// FilesByRule maps each rule id to the files it matched, in first-seen order.
func (g *FindingGraph) FilesByRule() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]string)
	for _, f := range g.findings {
		if f.Missing() {
			continue
		}
		out[*f.RuleID] = append(out[*f.RuleID], f.File)
	}
	return out
}

// recordedFiles lists each file that has at least one finding, in first-seen order.
func recordedFiles(findings []scanner.Finding) []string {
	seen := make(map[string]struct{}, len(findings))
	var out []string
	for _, f := range findings {
		if _, ok := seen[f.File]; ok {
			continue
		}
		seen[f.File] = struct{}{}
		out = append(out, f.File)
	}
	return out
}

// GetReport returns a text summary grouped by rule.
func (g *FindingGraph) GetReport() string {
	findings := g.Findings()
	byRule := g.FilesByRule()
	s := scanner.Summarize(recordedFiles(findings), findings)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Finding Graph (%d findings, %d files, %d missing):\n", s.Findings, s.Files, s.MissingFiles))
	sb.WriteString("--------------------------------------------------\n")

	ids := make([]string, 0, len(byRule))
	for id := range byRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		files := byRule[id]
		desc := ""
		for _, f := range findings {
			if !f.Missing() && *f.RuleID == id && f.Description != nil {
				desc = *f.Description
				break
			}
		}
		sb.WriteString(fmt.Sprintf("[%s] %d file(s)\n", id, len(files)))
		if desc != "" {
			sb.WriteString(fmt.Sprintf("  Description: %s\n", desc))
		}
		for _, file := range files {
			sb.WriteString(fmt.Sprintf("  - %s\n", file))
		}
	}
	for _, f := range findings {
		if f.Missing() {
			sb.WriteString(fmt.Sprintf("[missing] %s\n", f.File))
		}
	}
	return sb.String()
}

// SaveSnapshot writes the current findings as a JSON report.
func (g *FindingGraph) SaveSnapshot(path string) error {
	return report.WriteJSON(path, g.Findings())
}

// LoadSnapshot replaces the graph contents with a saved report.
func (g *FindingGraph) LoadSnapshot(path string) error {
	findings, err := report.ReadJSON(path)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.findings = nil
	g.index = make(map[string]int)
	g.mu.Unlock()
	g.AddFindings(findings)
	return nil
}

// CompareSnapshot diffs the graph against a baseline graph.
func (g *FindingGraph) CompareSnapshot(baseline *FindingGraph) report.Diff {
	return report.Compare(g.Findings(), baseline.Findings())
}
