package engine

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vulnscan-adk/pkg/scanner"
)

func hit(file, rule string) scanner.Finding {
	pattern, desc := "p", rule+" description"
	return scanner.Finding{File: file, RuleID: &rule, MatchedPattern: &pattern, Description: &desc, Note: scanner.NoteNone}
}

func TestAddFindingsDeduplicates(t *testing.T) {
	g := NewFindingGraph()
	g.AddFindings([]scanner.Finding{hit("a", "R1"), hit("b", "R1")})
	g.AddFindings([]scanner.Finding{hit("a", "R1"), hit("a", "R2"), {File: "c", Note: scanner.NoteMissingFile}})

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, map[string][]string{"R1": {"a", "b"}, "R2": {"a"}}, g.FilesByRule())
}

func TestConcurrentAdd(t *testing.T) {
	g := NewFindingGraph()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.AddFindings([]scanner.Finding{hit("a", "R1"), hit("b", "R2")})
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, g.Len())
}

func TestGetReport(t *testing.T) {
	g := NewFindingGraph()
	g.AddFindings([]scanner.Finding{hit("a.conf", "R2"), hit("b.conf", "R1"), {File: "gone", Note: scanner.NoteMissingFile}})

	out := g.GetReport()
	assert.Contains(t, out, "Finding Graph (2 findings, 3 files, 1 missing)")
	assert.Contains(t, out, "[R1] 1 file(s)\n  Description: R1 description\n  - b.conf\n")
	assert.Contains(t, out, "[missing] gone")
	assert.Less(t, strings.Index(out, "[R1]"), strings.Index(out, "[R2]"))
}

func TestSnapshotRoundTripAndCompare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	old := NewFindingGraph()
	old.AddFindings([]scanner.Finding{hit("a", "R1"), hit("b", "R1")})
	require.NoError(t, old.SaveSnapshot(path))

	baseline := NewFindingGraph()
	require.NoError(t, baseline.LoadSnapshot(path))
	assert.Equal(t, old.Findings(), baseline.Findings())

	current := NewFindingGraph()
	current.AddFindings([]scanner.Finding{hit("a", "R1"), hit("c", "R3")})
	diff := current.CompareSnapshot(baseline)
	assert.Equal(t, []scanner.Finding{hit("c", "R3")}, diff.New)
	assert.Equal(t, []scanner.Finding{hit("b", "R1")}, diff.Fixed)
	assert.Equal(t, []scanner.Finding{hit("a", "R1")}, diff.Unchanged)
}

func TestLoadSnapshotMissing(t *testing.T) {
	assert.Error(t, NewFindingGraph().LoadSnapshot(filepath.Join(t.TempDir(), "none.json")))
}
