package wrappers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vulnscan-adk/pkg/catalog"
	"github.com/user/vulnscan-adk/pkg/embed"
	"github.com/user/vulnscan-adk/pkg/engine"
	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/vecindex"
)

const testFeed = `{"vulnerabilities": [
  {"cve": {"id": "CVE-2024-1", "descriptions": [{"lang": "en", "value": "SQL injection in the login form of the admin portal"}],
   "metrics": {"cvssMetricV31": [{"cvssData": {"baseScore": 9.1, "baseSeverity": "CRITICAL"}}]}}},
  {"cve": {"id": "CVE-2024-2", "descriptions": [{"lang": "en", "value": "Cross-site scripting in comment rendering"}]}},
  {"cve": {"id": "CVE-2024-3", "descriptions": [{"lang": "en", "value": "Heap overflow in image parser"}]}}
]}`

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &Workspace{
		RulesPath:   filepath.Join(dir, "rules", "patterns.yml"),
		FeedPath:    filepath.Join(dir, "recent.json"),
		IndexDir:    filepath.Join(dir, "index"),
		CatalogPath: filepath.Join(dir, "catalog.db"),
		Workers:     2,
		Embedder:    embed.NewHashEmbedder(64),
		Graph:       engine.NewFindingGraph(),
	}
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, os.WriteFile(ws.FeedPath, []byte(testFeed), 0644))
	require.NoError(t, rules.Save(rules.NewSet(
		rules.Rule{ID: "TAUTOLOGY", Description: "sql tautology", Payloads: []string{"' OR '1'='1"}},
		rules.Rule{ID: "BROKEN", Regex: "("},
	), ws.RulesPath))
	return ws
}

func buildIndex(t *testing.T, ws *Workspace) {
	t.Helper()
	records, err := feed.Open(ws.FeedPath)
	require.NoError(t, err)
	entries, err := embed.BuildEntries(context.Background(), ws.Embedder, embed.FromRecords(records))
	require.NoError(t, err)
	idx, err := vecindex.Build(entries)
	require.NoError(t, err)
	require.NoError(t, idx.Save(ws.IndexDir))

	c, err := catalog.Open(ws.CatalogPath)
	require.NoError(t, err)
	_, err = c.Upsert(context.Background(), records)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestToolsRegistered(t *testing.T) {
	var names []string
	for _, tool := range newWorkspace(t).Tools() {
		names = append(names, tool.Name())
		assert.NotEmpty(t, tool.Description())
		assert.Equal(t, "object", tool.Schema()["type"])
	}
	assert.ElementsMatch(t, []string{"ScanFiles", "ShowFindings", "CorrelateText", "GenerateRules", "PlanSimulation", "SaveBaseline", "CompareWithBaseline"}, names)
}

func TestScanAndShowFindings(t *testing.T) {
	ws := newWorkspace(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "query.sql"), []byte("WHERE name='' OR '1'='1'"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clean.sql"), []byte("SELECT 1"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("' OR '1'='1"), 0644))
	missing := filepath.Join(dir, "gone.conf")

	out, err := (&ScanWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{
		"files": []interface{}{dir, missing},
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned 3 file(s): 1 finding(s), 1 file(s) with matches, 1 missing.")
	assert.Contains(t, out, "1 pattern(s) failed to compile")
	assert.Contains(t, out, "[missing] "+missing)
	assert.Equal(t, 2, ws.Graph.Len())

	shown, err := (&GraphViewerWrapper{Graph: ws.Graph}).Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, shown, "[TAUTOLOGY] 1 file(s)")
}

func TestScanWithoutFiles(t *testing.T) {
	out, err := (&ScanWrapper{Workspace: newWorkspace(t)}).Execute(context.Background(), map[string]interface{}{}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "no files given")
}

func TestShowFindingsEmpty(t *testing.T) {
	out, err := (&GraphViewerWrapper{Graph: engine.NewFindingGraph()}).Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "No findings yet")
}

func TestGenerateRulesThenPlan(t *testing.T) {
	ws := newWorkspace(t)
	out, err := (&GenerateRulesWrapper{Workspace: ws}).Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Added 2 new rule(s)")

	plan, err := (&SimulationWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{"rule_id": "CVE-2024-2"}, nil)
	require.NoError(t, err)
	assert.Contains(t, plan, "requests=1")
	assert.Contains(t, plan, "GET http://localhost:8080/index.php?input=%3Cscript%3Ealert%281%29%3C%2Fscript%3E")

	bad, err := (&SimulationWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{"target": "not a url"}, nil)
	require.NoError(t, err)
	assert.Contains(t, bad, "Error")
}

func TestPlanWithoutSimulationRules(t *testing.T) {
	out, err := (&SimulationWrapper{Workspace: newWorkspace(t)}).Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "No simulation-only rules")
}

func TestCorrelateText(t *testing.T) {
	ws := newWorkspace(t)
	buildIndex(t, ws)

	out, err := (&CorrelateWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{
		"text": "SQL injection in a login form",
		"k":    float64(2),
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "1. CVE-2024-1")
	assert.Contains(t, out, "severity: CRITICAL 9.1")
	assert.NotContains(t, out, "3. ")
}

func TestCorrelateWithoutIndex(t *testing.T) {
	out, err := (&CorrelateWrapper{Workspace: newWorkspace(t)}).Execute(context.Background(), map[string]interface{}{"text": "x"}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "index build")
}

func TestCorrelateEmptyText(t *testing.T) {
	ws := newWorkspace(t)
	buildIndex(t, ws)
	out, err := (&CorrelateWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "'text' is required")
}

func TestBaselineTools(t *testing.T) {
	ws := newWorkspace(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "a.sql")
	require.NoError(t, os.WriteFile(target, []byte("' OR '1'='1"), 0644))
	baseline := filepath.Join(dir, "baseline.json")

	_, err := (&ScanWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{"files": []interface{}{target}}, nil)
	require.NoError(t, err)
	saved, err := (&SaveSnapshotWrapper{Graph: ws.Graph}).Execute(context.Background(), map[string]interface{}{"filename": baseline}, nil)
	require.NoError(t, err)
	assert.Contains(t, saved, "saved 1 findings")

	_, err = (&ScanWrapper{Workspace: ws}).Execute(context.Background(), map[string]interface{}{"files": []interface{}{filepath.Join(dir, "missing.sql")}}, nil)
	require.NoError(t, err)

	diff, err := (&DiffSnapshotWrapper{Graph: ws.Graph}).Execute(context.Background(), map[string]interface{}{"filename": baseline}, nil)
	require.NoError(t, err)
	assert.Contains(t, diff, "NEW: 1")
	assert.Contains(t, diff, "[+] missing file")
	assert.Contains(t, diff, "FIXED: 0")
	assert.Contains(t, diff, "UNCHANGED: 1")
}

func TestCompareWithoutBaseline(t *testing.T) {
	out, err := (&DiffSnapshotWrapper{Graph: engine.NewFindingGraph()}).Execute(context.Background(), map[string]interface{}{"filename": filepath.Join(t.TempDir(), "none.json")}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Error loading baseline")
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"list":  []interface{}{"a", " b ", 3, ""},
		"csv":   "a, b\tc",
		"n":     float64(4),
		"ns":    "7",
		"text":  "  hi ",
		"bogus": true,
	}
	assert.Equal(t, []string{"a", "b"}, stringsArg(args, "list"))
	assert.Equal(t, []string{"a", "b", "c"}, stringsArg(args, "csv"))
	assert.Nil(t, stringsArg(args, "bogus"))
	assert.Equal(t, 4, intArg(args, "n", 1))
	assert.Equal(t, 7, intArg(args, "ns", 1))
	assert.Equal(t, 1, intArg(args, "missing", 1))
	assert.Equal(t, "hi", stringArg(args, "text"))
}
