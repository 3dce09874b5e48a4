package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/rules"
)

// ErrNoMatchers is returned for a rule with no usable pattern source.
var ErrNoMatchers = errors.New("rule has no usable matchers")

var errEmptyPattern = errors.New("empty pattern")

// compileFunc is swapped in tests to count compilations.
var compileFunc = regexp.Compile

// CompileWarning describes one pattern source that failed to compile. It is
// reported, never fatal.
type CompileWarning struct {
	RuleID  string
	Pattern string
	Err     error
}

func (w CompileWarning) Error() string {
	return fmt.Sprintf("rule %s: pattern %q: %v", w.RuleID, w.Pattern, w.Err)
}

func (w CompileWarning) Unwrap() error { return w.Err }

// Matcher is the executable form of a single pattern source. Source is the
// text as written in the rule; literal payloads are quoted before compiling.
type Matcher struct {
	Source string
	re     *regexp.Regexp
}

// Match reports whether content contains a match anywhere.
func (m Matcher) Match(content string) bool {
	return m.re != nil && m.re.MatchString(content)
}

// CompiledRule pairs a rule with the matchers that compiled successfully.
// It is immutable and safe to share between goroutines.
type CompiledRule struct {
	Rule     rules.Rule
	Matchers []Matcher
}

// FirstMatch returns the first matcher, in declared order, that hits content.
func (c CompiledRule) FirstMatch(content string) (Matcher, bool) {
	for _, m := range c.Matchers {
		if m.Match(content) {
			return m, true
		}
	}
	return Matcher{}, false
}

// Compile builds matchers for every pattern source of rule independently.
// Payloads match as literal text, the regex field as a regular expression.
// Bad sources are dropped and returned as warnings; the rule itself fails only
// when nothing compiled.
func Compile(rule rules.Rule) (CompiledRule, []CompileWarning, error) {
	sources := rule.Matchers()
	out := CompiledRule{Rule: rule, Matchers: make([]Matcher, 0, len(sources))}
	var warnings []CompileWarning

	for _, src := range sources {
		if strings.TrimSpace(src.Text) == "" {
			warnings = append(warnings, CompileWarning{RuleID: rule.ID, Pattern: src.Text, Err: errEmptyPattern})
			continue
		}
		expr := src.Text
		if src.Literal {
			expr = regexp.QuoteMeta(expr)
		}
		re, err := compileFunc(expr)
		if err != nil {
			warnings = append(warnings, CompileWarning{RuleID: rule.ID, Pattern: src.Text, Err: err})
			continue
		}
		out.Matchers = append(out.Matchers, Matcher{Source: src.Text, re: re})
	}

	if len(out.Matchers) == 0 {
		return out, warnings, fmt.Errorf("rule %s: %w", rule.ID, ErrNoMatchers)
	}
	return out, warnings, nil
}

// CompileSet compiles every rule once, preserving order. Rules left without
// matchers are excluded from the result but stay in the set for persistence.
func CompileSet(set rules.Set, logger hclog.Logger) ([]CompiledRule, []CompileWarning) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	compiled := make([]CompiledRule, 0, len(set))
	var warnings []CompileWarning

	for _, rule := range set {
		c, ws, err := Compile(rule)
		for _, w := range ws {
			logger.Warn("invalid pattern skipped", "rule", w.RuleID, "pattern", w.Pattern, "error", w.Err)
		}
		warnings = append(warnings, ws...)
		if err != nil {
			logger.Warn("rule excluded from scan", "rule", rule.ID, "error", err)
			continue
		}
		compiled = append(compiled, c)
	}
	logger.Debug("rules compiled", "total", len(set), "usable", len(compiled), "warnings", len(warnings))
	return compiled, warnings
}
