package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vulnscan-adk/pkg/classifier"
	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/matcher"
	"github.com/user/vulnscan-adk/pkg/rules"
)

func compile(t *testing.T, rs ...rules.Rule) []matcher.CompiledRule {
	t.Helper()
	compiled, warnings := matcher.CompileSet(rules.NewSet(rs...), nil)
	require.Empty(t, warnings)
	return compiled
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanTautologyScenario(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "query.sql", "SELECT * FROM users WHERE name='' OR '1'='1' LIMIT 1;")
	compiled := compile(t, rules.Rule{ID: "CVE-TEST-1", Description: "tautology", Payloads: []string{"' OR '1'='1"}})

	findings, err := Scan(context.Background(), []string{target}, compiled, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, target, f.File)
	require.NotNil(t, f.RuleID)
	assert.Equal(t, "CVE-TEST-1", *f.RuleID)
	require.NotNil(t, f.MatchedPattern)
	assert.Equal(t, "' OR '1'='1", *f.MatchedPattern)
	assert.Equal(t, "tautology", *f.Description)
	assert.Equal(t, NoteNone, f.Note)
}

func TestScanSynthesizedRulesMatchTheirPayloads(t *testing.T) {
	dir := t.TempDir()
	for _, entry := range classifier.DefaultTable {
		rule, ok := classifier.Synthesize(feed.Record{ID: "CVE-" + string(entry.Category), Description: "d"}, entry.Category)
		require.True(t, ok)
		compiled := compile(t, rule)

		for i, payload := range entry.Payloads {
			target := writeFile(t, dir, fmt.Sprintf("%s-%d.txt", entry.Category, i), "prefix "+payload+" suffix")
			findings, err := Scan(context.Background(), []string{target}, compiled, Options{})
			require.NoError(t, err)
			require.Len(t, findings, 1, "payload %q", payload)
			assert.Equal(t, rule.ID, *findings[0].RuleID)
			assert.Equal(t, payload, *findings[0].MatchedPattern)
		}
	}
}

func TestScanMissingFile(t *testing.T) {
	compiled := compile(t, rules.Rule{ID: "R", Payloads: []string{"x"}})
	missing := filepath.Join(t.TempDir(), "does-not-exist.conf")

	findings, err := Scan(context.Background(), []string{missing}, compiled, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.True(t, findings[0].Missing())
	assert.Equal(t, NoteMissingFile, findings[0].Note)
	assert.Nil(t, findings[0].RuleID)
	assert.Nil(t, findings[0].MatchedPattern)
	assert.Nil(t, findings[0].Description)
}

func TestScanEveryMatchingRuleOncePerFile(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "apache.conf", "<script>alert(1)</script>\nServerTokens Full\n<script>alert(1)</script>")
	compiled := compile(t,
		rules.Rule{ID: "XSS", Payloads: []string{"<script>alert(1)</script>", "alert"}},
		rules.Rule{ID: "NONE", Payloads: []string{"DROP TABLE"}},
		rules.Rule{ID: "TOKENS", Regex: `ServerTokens\s+Full`},
	)

	findings, err := Scan(context.Background(), []string{target}, compiled, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, "XSS", *findings[0].RuleID)
	assert.Equal(t, "<script>alert(1)</script>", *findings[0].MatchedPattern)
	assert.Equal(t, "TOKENS", *findings[1].RuleID)
}

func TestScanPermissiveDecoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.cnf")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xfe password=hunter2 \xc3"), 0644))
	compiled := compile(t, rules.Rule{ID: "PW", Regex: `password=\w+`})

	findings, err := Scan(context.Background(), []string{path}, compiled, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "PW", *findings[0].RuleID)
}

func TestScanParallelKeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	compiled := compile(t,
		rules.Rule{ID: "A", Payloads: []string{"alpha"}},
		rules.Rule{ID: "B", Payloads: []string{"beta"}},
	)

	var files []string
	for i := 0; i < 40; i++ {
		switch i % 3 {
		case 0:
			files = append(files, writeFile(t, dir, fmt.Sprintf("f%02d.txt", i), "alpha beta"))
		case 1:
			files = append(files, filepath.Join(dir, fmt.Sprintf("missing%02d.txt", i)))
		default:
			files = append(files, writeFile(t, dir, fmt.Sprintf("f%02d.txt", i), "beta"))
		}
	}

	sequential, err := Scan(context.Background(), files, compiled, Options{Workers: 1})
	require.NoError(t, err)
	parallel, err := Scan(context.Background(), files, compiled, Options{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
	assert.Equal(t, files[0], parallel[0].File)
	assert.Equal(t, "A", *parallel[0].RuleID)
	assert.Equal(t, "B", *parallel[1].RuleID)
	assert.True(t, parallel[2].Missing())
}

func TestScanCancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeFile(t, dir, "a.txt", "a"), writeFile(t, dir, "b.txt", "b")}
	compiled := compile(t, rules.Rule{ID: "A", Payloads: []string{"a"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	findings, err := Scan(ctx, files, compiled, Options{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, findings)
}

func TestSummarize(t *testing.T) {
	id, pat, desc := "R", "p", "d"
	findings := []Finding{
		{File: "a", RuleID: &id, MatchedPattern: &pat, Description: &desc},
		{File: "a", RuleID: &id, MatchedPattern: &pat, Description: &desc},
		{File: "b", Note: NoteMissingFile},
		{File: "c", RuleID: &id, MatchedPattern: &pat, Description: &desc},
	}
	files := []string{"a", "b", "c", "clean"}
	assert.Equal(t, Summary{Files: 4, MatchedFiles: 2, MissingFiles: 1, Findings: 3}, Summarize(files, findings))
}

func TestSummarizeCountsFilesWithoutFindings(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "hit.txt", "alpha"),
		writeFile(t, dir, "clean1.txt", "nothing here"),
		writeFile(t, dir, "clean2.txt", "nor here"),
	}
	compiled := compile(t, rules.Rule{ID: "A", Payloads: []string{"alpha"}})

	findings, err := Scan(context.Background(), files, compiled, Options{})
	require.NoError(t, err)
	assert.Equal(t, Summary{Files: 3, MatchedFiles: 1, Findings: 1}, Summarize(files, findings))
}
