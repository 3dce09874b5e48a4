package scanner

// Note marks findings that record an absence rather than a match.
type Note string

const (
	NoteNone        Note = "none"
	NoteMissingFile Note = "missing_file"
)

// Finding is one rule matching one file, or one file that could not be read.
// RuleID, MatchedPattern and Description are nil for missing files.
type Finding struct {
	File           string
	RuleID         *string
	MatchedPattern *string
	Description    *string
	Note           Note
}

// Missing reports whether the finding records an unreadable file.
func (f Finding) Missing() bool { return f.Note == NoteMissingFile }

// Key identifies a finding across runs.
func (f Finding) Key() string {
	return f.File + "\x00" + deref(f.RuleID) + "\x00" + deref(f.MatchedPattern) + "\x00" + string(f.Note)
}

func missingFile(path string) Finding {
	return Finding{File: path, Note: NoteMissingFile}
}

func matched(path, ruleID, pattern, description string) Finding {
	return Finding{
		File:           path,
		RuleID:         &ruleID,
		MatchedPattern: &pattern,
		Description:    &description,
		Note:           NoteNone,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Summary aggregates a scan result.
type Summary struct {
	Files        int
	MatchedFiles int
	MissingFiles int
	Findings     int
}

// Summarize aggregates the findings of a scan over files. Files counts every
// input, including those without findings.
func Summarize(files []string, findings []Finding) Summary {
	s := Summary{Files: len(files)}
	matched := make(map[string]bool)
	for _, f := range findings {
		if f.Missing() {
			s.MissingFiles++
			continue
		}
		s.Findings++
		if !matched[f.File] {
			matched[f.File] = true
			s.MatchedFiles++
		}
	}
	return s
}
