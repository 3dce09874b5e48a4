package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/scanner"
)

func str(s string) *string { return &s }

func match(file, rule, pattern string) scanner.Finding {
	return scanner.Finding{File: file, RuleID: str(rule), MatchedPattern: str(pattern), Description: str(rule + " desc"), Note: scanner.NoteNone}
}

func missing(file string) scanner.Finding {
	return scanner.Finding{File: file, Note: scanner.NoteMissingFile}
}

func TestEncodeJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, []scanner.Finding{
		match("/etc/app.conf", "CVE-1", "' OR '1'='1"),
		missing("/etc/gone.conf"),
	}))

	assert.JSONEq(t, `[
		{"file": "/etc/app.conf", "match": "' OR '1'='1", "rule": "CVE-1", "desc": "CVE-1 desc"},
		{"file": "/etc/gone.conf", "match": null, "rule": null, "note": "missing"}
	]`, buf.String())
}

func TestEncodeJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWriteReadJSON(t *testing.T) {
	findings := []scanner.Finding{match("a", "R1", "p1"), missing("b"), match("c", "R2", "p2")}
	path := filepath.Join(t.TempDir(), "reports", "scan.json")
	require.NoError(t, WriteJSON(path, findings))

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, findings, got)
}

func TestReadJSONInvalid(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestBuildSARIF(t *testing.T) {
	set := rules.NewSet(
		rules.Rule{ID: "CVE-1", Description: "sql injection", Category: rules.CategorySQLInjection},
		rules.Rule{ID: "CVE-2", Description: "xss", Category: rules.CategoryXSS},
	)
	findings := []scanner.Finding{
		match("a.php", "CVE-1", "' OR '1'='1"),
		match("b.php", "CVE-1", "' OR '1'='1"),
		match("b.php", "CVE-2", "<script>"),
		missing("c.php"),
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeSARIF(&buf, findings, set, "run-1"))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID     string         `json:"ruleId"`
				Level      string         `json:"level"`
				Properties map[string]any `json:"properties"`
				Locations  []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, ToolName, run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 3)
	require.Len(t, run.Results, 4)

	assert.Equal(t, "CVE-1", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "a.php", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, "run-1", run.Results[0].Properties["runId"])
	assert.Equal(t, "warning", run.Results[2].Level)
	assert.Equal(t, missingFileRuleID, run.Results[3].RuleID)
	assert.Equal(t, "note", run.Results[3].Level)
}

func TestWriteSARIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scan.sarif")
	require.NoError(t, WriteSARIF(path, []scanner.Finding{match("a", "X", "p")}, nil, NewRunID()))
	assert.FileExists(t, path)
}

func TestNewRunIDUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}

func TestCompare(t *testing.T) {
	baseline := []scanner.Finding{match("a", "R1", "p"), match("b", "R1", "p"), missing("c")}
	current := []scanner.Finding{match("a", "R1", "p"), match("a", "R2", "q"), missing("c")}

	d := Compare(current, baseline)
	assert.Equal(t, []scanner.Finding{match("a", "R2", "q")}, d.New)
	assert.Equal(t, []scanner.Finding{match("b", "R1", "p")}, d.Fixed)
	assert.Equal(t, []scanner.Finding{match("a", "R1", "p"), missing("c")}, d.Unchanged)
}

func TestCompareIdentical(t *testing.T) {
	run := []scanner.Finding{match("a", "R1", "p")}
	d := Compare(run, run)
	assert.Empty(t, d.New)
	assert.Empty(t, d.Fixed)
	assert.Len(t, d.Unchanged, 1)
}
