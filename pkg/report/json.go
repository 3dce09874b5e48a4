package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/user/vulnscan-adk/pkg/scanner"
)

// NoteMissing is the report marker for an unreadable file.
const NoteMissing = "missing"

// Entry is one finding as written to a JSON report.
type Entry struct {
	File  string  `json:"file"`
	Match *string `json:"match"`
	Rule  *string `json:"rule"`
	Desc  *string `json:"desc,omitempty"`
	Note  string  `json:"note,omitempty"`
}

func toEntry(f scanner.Finding) Entry {
	if f.Missing() {
		return Entry{File: f.File, Note: NoteMissing}
	}
	return Entry{File: f.File, Match: f.MatchedPattern, Rule: f.RuleID, Desc: f.Description}
}

func (e Entry) finding() scanner.Finding {
	if e.Note == NoteMissing {
		return scanner.Finding{File: e.File, Note: scanner.NoteMissingFile}
	}
	return scanner.Finding{
		File:           e.File,
		RuleID:         e.Rule,
		MatchedPattern: e.Match,
		Description:    e.Desc,
		Note:           scanner.NoteNone,
	}
}

// Entries converts findings to their report form, preserving order.
func Entries(findings []scanner.Finding) []Entry {
	out := make([]Entry, len(findings))
	for i, f := range findings {
		out[i] = toEntry(f)
	}
	return out
}

// EncodeJSON writes findings as an indented JSON array.
func EncodeJSON(w io.Writer, findings []scanner.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Entries(findings))
}

// WriteJSON writes the JSON report to path, creating parent directories.
func WriteJSON(path string, findings []scanner.Finding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := EncodeJSON(f, findings); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// ReadJSON loads findings from a report written by WriteJSON.
func ReadJSON(path string) ([]scanner.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	out := make([]scanner.Finding, len(entries))
	for i, e := range entries {
		out[i] = e.finding()
	}
	return out, nil
}
