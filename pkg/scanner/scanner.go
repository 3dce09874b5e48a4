package scanner

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/user/vulnscan-adk/pkg/matcher"
)

// Options tunes a scan run.
type Options struct {
	Workers int          // files scanned in parallel; <= 1 scans sequentially
	Logger  hclog.Logger // nil discards logs
}

// Scan applies every compiled rule to every file. Findings are ordered by
// file input order, then rule order, regardless of Workers. Each rule yields
// at most one finding per file. An unreadable file yields a single
// missing-file finding and never aborts the run.
//
// When ctx is cancelled the findings of the files completed before the first
// unfinished one are returned together with ctx.Err().
func Scan(ctx context.Context, files []string, compiled []matcher.CompiledRule, opts Options) ([]Finding, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger.Info("scan starting", "files", len(files), "rules", len(compiled), "workers", workers)

	perFile := make([][]Finding, len(files))
	done := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = scanFile(path, compiled, logger)
			done[i] = true
			return nil
		})
	}
	waitErr := g.Wait()

	out := make([]Finding, 0, len(files))
	completed := 0
	for i := range files {
		if !done[i] {
			break
		}
		out = append(out, perFile[i]...)
		completed++
	}

	if completed < len(files) {
		err := ctx.Err()
		if err == nil {
			err = waitErr
		}
		logger.Warn("scan interrupted", "completed", completed, "files", len(files), "error", err)
		return out, err
	}

	logger.Info("scan complete", "findings", len(out))
	return out, nil
}

func scanFile(path string, compiled []matcher.CompiledRule, logger hclog.Logger) []Finding {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("file not readable", "file", path, "error", err)
		return []Finding{missingFile(path)}
	}
	content := decode(data)

	var findings []Finding
	for _, rule := range compiled {
		m, ok := rule.FirstMatch(content)
		if !ok {
			continue
		}
		logger.Debug("match", "file", path, "rule", rule.Rule.ID, "pattern", m.Source)
		findings = append(findings, matched(path, rule.Rule.ID, m.Source, rule.Rule.Description))
	}
	return findings
}

// decode turns raw bytes into text, replacing invalid UTF-8 sequences.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
