package report

import "github.com/user/vulnscan-adk/pkg/scanner"

// Diff classifies findings against a baseline run.
type Diff struct {
	New       []scanner.Finding
	Fixed     []scanner.Finding
	Unchanged []scanner.Finding
}

// Compare matches findings by file, rule and matched pattern. New and
// Unchanged follow current order; Fixed follows baseline order.
func Compare(current, baseline []scanner.Finding) Diff {
	var d Diff
	base := make(map[string]bool, len(baseline))
	for _, f := range baseline {
		base[f.Key()] = true
	}
	cur := make(map[string]bool, len(current))
	for _, f := range current {
		k := f.Key()
		if cur[k] {
			continue
		}
		cur[k] = true
		if base[k] {
			d.Unchanged = append(d.Unchanged, f)
		} else {
			d.New = append(d.New, f)
		}
	}
	seen := make(map[string]bool, len(baseline))
	for _, f := range baseline {
		k := f.Key()
		if cur[k] || seen[k] {
			continue
		}
		seen[k] = true
		d.Fixed = append(d.Fixed, f)
	}
	return d
}
