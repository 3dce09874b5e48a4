package wrappers

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/vulnscan-adk/pkg/scanner"
)

// ScanWrapper implements the Tool interface for matching rules against files
type ScanWrapper struct {
	Workspace *Workspace
}

func (s *ScanWrapper) Name() string {
	return "ScanFiles"
}

func (s *ScanWrapper) Description() string {
	return "Scans local files (or every file under a directory) with the loaded vulnerability rules and adds the findings to the session."
}

func (s *ScanWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"files": map[string]interface{}{
				"type":        "array",
				"description": "File or directory paths to scan.",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
		"required": []string{"files"},
	}
}

func (s *ScanWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	progress = progressOrNop(progress)
	paths := stringsArg(args, "files")
	if len(paths) == 0 {
		paths = stringsArg(args, "args")
	}
	if len(paths) == 0 {
		return "Error: no files given. Pass 'files' as a list of paths.", nil
	}

	set, compiled, warnings, err := s.Workspace.Rules()
	if err != nil {
		return fmt.Sprintf("Error loading rules from %s: %v", s.Workspace.RulesPath, err), nil
	}
	if len(compiled) == 0 {
		return fmt.Sprintf("No usable rules in %s (%d defined). Run GenerateRules first.", s.Workspace.RulesPath, len(set)), nil
	}

	files := expandPaths(paths)
	progress(fmt.Sprintf("[Scan] %d file(s) with %d rule(s)...", len(files), len(compiled)))
	findings, err := scanner.Scan(ctx, files, compiled, scanner.Options{Workers: s.Workspace.Workers, Logger: s.Workspace.logger()})
	if s.Workspace.Graph != nil {
		s.Workspace.Graph.AddFindings(findings)
	}
	if err != nil {
		return "", err
	}

	sum := scanner.Summarize(files, findings)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scanned %d file(s): %d finding(s), %d file(s) with matches, %d missing.\n", sum.Files, sum.Findings, sum.MatchedFiles, sum.MissingFiles))
	if len(warnings) > 0 {
		sb.WriteString(fmt.Sprintf("%d pattern(s) failed to compile and were skipped.\n", len(warnings)))
	}
	for _, f := range findings {
		if f.Missing() {
			sb.WriteString(fmt.Sprintf("  [missing] %s\n", f.File))
			continue
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s matched %q\n", *f.RuleID, f.File, *f.MatchedPattern))
	}
	return sb.String(), nil
}

// expandPaths replaces directories with the regular files beneath them.
// Paths that do not exist are kept so the scan records them as missing.
func expandPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		_ = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != p {
				return filepath.SkipDir
			}
			if d.Type().IsRegular() {
				out = append(out, path)
			}
			return nil
		})
	}
	return out
}
