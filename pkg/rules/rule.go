package rules

import "strings"

// Category classifies the kind of weakness a rule detects.
type Category string

const (
	CategoryXSS          Category = "xss"
	CategorySQLInjection Category = "sql_injection"
	CategoryRCE          Category = "rce"
	CategoryUnknown      Category = "unknown"
)

// ParseCategory maps free text onto a Category; anything unrecognised is unknown.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryXSS:
		return CategoryXSS
	case CategorySQLInjection:
		return CategorySQLInjection
	case CategoryRCE:
		return CategoryRCE
	default:
		return CategoryUnknown
	}
}

// Method is the HTTP method a simulated request would use.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// ParseMethod defaults to GET for empty or unknown values.
func ParseMethod(s string) Method {
	if strings.EqualFold(strings.TrimSpace(s), string(MethodPost)) {
		return MethodPost
	}
	return MethodGet
}

const DefaultParameter = "input"

// Rule is a named detection signature.
type Rule struct {
	ID             string
	Description    string
	Regex          string // legacy single-expression form
	Payloads       []string
	Category       Category
	Method         Method
	Parameter      string
	SimulationOnly bool
}

// Source is one matchable pattern of a rule. Payloads are literal text;
// the legacy regex field is a regular expression.
type Source struct {
	Text    string
	Literal bool
}

// Matchers returns the rule's pattern sources in evaluation order: the legacy
// regex first, then payloads as declared.
func (r Rule) Matchers() []Source {
	out := make([]Source, 0, len(r.Payloads)+1)
	if r.Regex != "" {
		out = append(out, Source{Text: r.Regex})
	}
	for _, p := range r.Payloads {
		out = append(out, Source{Text: p, Literal: true})
	}
	return out
}

// Set is an ordered collection of rules with unique ids.
type Set []Rule

// NewSet builds a Set from rules, keeping the first rule seen for each id.
// Rules without an id are dropped.
func NewSet(rs ...Rule) Set {
	out := make(Set, 0, len(rs))
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Get returns the rule with the given id.
func (s Set) Get(id string) (Rule, bool) {
	for _, r := range s {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, r := range s {
		ids[i] = r.ID
	}
	return ids
}

// Merge combines existing and incoming rules. On an id collision the existing
// rule is kept and the incoming one discarded, so re-running classification
// never overwrites curated rules.
func Merge(existing, incoming Set) Set {
	out := make(Set, 0, len(existing)+len(incoming))
	out = append(out, NewSet(existing...)...)
	seen := make(map[string]struct{}, len(out))
	for _, r := range out {
		seen[r.ID] = struct{}{}
	}
	for _, r := range incoming {
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
