package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/scanner"
)

const (
	ToolName = "vulnscan-adk"
	ToolURI  = "https://github.com/user/vulnscan-adk"

	missingFileRuleID = "missing-file"
)

// NewRunID returns a fresh identifier for one scan run.
func NewRunID() string { return uuid.NewString() }

// BuildSARIF converts findings into a SARIF 2.1.0 report. Rule metadata is
// taken from set when present; missing files become note-level results.
func BuildSARIF(findings []scanner.Finding, set rules.Set, runID string) (*sarif.Report, error) {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(ToolName, ToolURI)

	for _, f := range findings {
		ruleID, level, message := missingFileRuleID, "note", "file could not be read"
		if !f.Missing() {
			ruleID = *f.RuleID
			level = levelFor(set, ruleID)
			message = fmt.Sprintf("matched pattern %q", *f.MatchedPattern)
			if f.Description != nil && *f.Description != "" {
				message = *f.Description + ": " + message
			}
		}

		pr := run.AddRule(ruleID)
		if r, ok := set.Get(ruleID); ok {
			pr.WithDescription(r.Description)
		} else if ruleID == missingFileRuleID {
			pr.WithDescription("Input file was missing or unreadable")
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.File)),
		)
		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(level).
			WithLocations([]*sarif.Location{location})
		result.PropertyBag = *sarif.NewPropertyBag()
		result.Add("runId", runID)
		if f.MatchedPattern != nil {
			result.Add("matchedPattern", *f.MatchedPattern)
		}
		run.AddResult(result)
	}
	rep.AddRun(run)
	return rep, nil
}

// levelFor maps a rule's category onto a SARIF level.
func levelFor(set rules.Set, ruleID string) string {
	r, ok := set.Get(ruleID)
	if !ok {
		return "warning"
	}
	switch r.Category {
	case rules.CategoryRCE, rules.CategorySQLInjection:
		return "error"
	default:
		return "warning"
	}
}

func EncodeSARIF(w io.Writer, findings []scanner.Finding, set rules.Set, runID string) error {
	rep, err := BuildSARIF(findings, set, runID)
	if err != nil {
		return err
	}
	return rep.PrettyWrite(w)
}

// WriteSARIF writes the SARIF report to path, creating parent directories.
func WriteSARIF(path string, findings []scanner.Finding, set rules.Set, runID string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error writing SARIF report: %w", err)
	}
	if err := EncodeSARIF(f, findings, set, runID); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
