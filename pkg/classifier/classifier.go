package classifier

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/rules"
)

// PreviewLength bounds the description stored on a synthesized rule, in runes.
const PreviewLength = 120

const ellipsis = "..."

// Entry maps a category to the keywords that identify it and the
// non-executing payload templates a synthesized rule carries.
type Entry struct {
	Category rules.Category
	Keywords []string
	Payloads []string
	Method   rules.Method
}

// Table is consulted in order; the first entry with a matching keyword wins.
type Table []Entry

// DefaultTable is the built-in category mapping.
var DefaultTable = Table{
	{
		Category: rules.CategoryXSS,
		Keywords: []string{"cross-site scripting", "xss"},
		Payloads: []string{"<script>alert(1)</script>"},
		Method:   rules.MethodGet,
	},
	{
		Category: rules.CategorySQLInjection,
		Keywords: []string{"sql injection", "sqli", "database error"},
		Payloads: []string{"' OR '1'='1", "'; DROP TABLE users; --"},
		Method:   rules.MethodGet,
	},
	{
		Category: rules.CategoryRCE,
		Keywords: []string{"remote code execution", "rce", "arbitrary code"},
		Payloads: []string{"<?php system('id'); ?>"},
		Method:   rules.MethodPost,
	},
}

func (t Table) entry(cat rules.Category) (Entry, bool) {
	for _, e := range t {
		if e.Category == cat {
			return e, true
		}
	}
	return Entry{}, false
}

// Classify returns the category of the first entry whose keyword occurs in
// the record description, ignoring case.
func (t Table) Classify(rec feed.Record) (rules.Category, bool) {
	desc := strings.ToLower(rec.Description)
	for _, e := range t {
		for _, kw := range e.Keywords {
			if kw != "" && strings.Contains(desc, strings.ToLower(kw)) {
				return e.Category, true
			}
		}
	}
	return "", false
}

// Synthesize builds a simulation-only rule for rec from the category's
// payload templates. It reports false when the table has no such category.
func (t Table) Synthesize(rec feed.Record, cat rules.Category) (rules.Rule, bool) {
	e, ok := t.entry(cat)
	if !ok {
		return rules.Rule{}, false
	}
	return rules.Rule{
		ID:             rec.ID,
		Description:    preview(rec.Description),
		Payloads:       append([]string(nil), e.Payloads...),
		Category:       e.Category,
		Method:         e.Method,
		Parameter:      rules.DefaultParameter,
		SimulationOnly: true,
	}, true
}

// Generate classifies every record and synthesizes a rule for each match.
// Unmatched records are dropped; a repeated record id keeps its first rule.
func (t Table) Generate(records []feed.Record, logger hclog.Logger) rules.Set {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	out := make([]rules.Rule, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.ID == "" || rec.ID == feed.NotAvailable {
			skipped++
			continue
		}
		cat, ok := t.Classify(rec)
		if !ok {
			skipped++
			continue
		}
		rule, ok := t.Synthesize(rec, cat)
		if !ok {
			skipped++
			continue
		}
		logger.Debug("classified record", "id", rec.ID, "category", cat)
		out = append(out, rule)
	}
	set := rules.NewSet(out...)
	logger.Info("rules generated", "records", len(records), "rules", len(set), "unclassified", skipped)
	return set
}

// Classify uses DefaultTable.
func Classify(rec feed.Record) (rules.Category, bool) { return DefaultTable.Classify(rec) }

// Synthesize uses DefaultTable.
func Synthesize(rec feed.Record, cat rules.Category) (rules.Rule, bool) {
	return DefaultTable.Synthesize(rec, cat)
}

// Generate uses DefaultTable.
func Generate(records []feed.Record, logger hclog.Logger) rules.Set {
	return DefaultTable.Generate(records, logger)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLength {
		return s
	}
	return string(r[:PreviewLength]) + ellipsis
}
