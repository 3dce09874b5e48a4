package wrappers

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/adk"
	"github.com/user/vulnscan-adk/pkg/catalog"
	"github.com/user/vulnscan-adk/pkg/correlate"
	"github.com/user/vulnscan-adk/pkg/embed"
	"github.com/user/vulnscan-adk/pkg/engine"
	"github.com/user/vulnscan-adk/pkg/matcher"
	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/vecindex"
)

// Workspace is the state shared by the agent tools in one session.
type Workspace struct {
	RulesPath   string
	FeedPath    string
	IndexDir    string
	CatalogPath string
	Workers     int
	Embedder    embed.Embedder
	Graph       *engine.FindingGraph
	Logger      hclog.Logger

	mu      sync.Mutex
	index   *vecindex.Index
	catalog *catalog.Catalog
}

func (w *Workspace) logger() hclog.Logger {
	if w.Logger == nil {
		return hclog.NewNullLogger()
	}
	return w.Logger
}

// Rules loads and compiles the rule file. It is read on every call so rules
// generated during the session are picked up.
func (w *Workspace) Rules() (rules.Set, []matcher.CompiledRule, []matcher.CompileWarning, error) {
	set, err := rules.Load(w.RulesPath, w.logger())
	if err != nil {
		return nil, nil, nil, err
	}
	compiled, warnings := matcher.CompileSet(set, w.logger())
	return set, compiled, warnings, nil
}

// Correlator returns an engine over the persisted index. The index and
// catalog are opened once and reused.
func (w *Workspace) Correlator() (*correlate.Engine, error) {
	if w.Embedder == nil {
		return nil, fmt.Errorf("no embedder configured; set a Gemini API key or use the offline embedder")
	}
	set, err := rules.Load(w.RulesPath, w.logger())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.index == nil {
		idx, err := vecindex.Load(w.IndexDir)
		if err != nil {
			return nil, fmt.Errorf("load index from %s (run 'index build' first): %w", w.IndexDir, err)
		}
		w.index = idx
	}
	if w.catalog == nil && w.CatalogPath != "" {
		c, err := catalog.Open(w.CatalogPath)
		if err != nil {
			w.logger().Warn("catalog unavailable", "path", w.CatalogPath, "error", err)
		} else {
			w.catalog = c
		}
	}

	e := &correlate.Engine{
		Embedder: w.Embedder,
		Index:    w.index,
		Rules:    set,
		Logger:   w.logger(),
	}
	if w.catalog != nil {
		e.Records = w.catalog
	}
	return e, nil
}

// Close releases the catalog if one was opened.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.catalog == nil {
		return nil
	}
	err := w.catalog.Close()
	w.catalog = nil
	return err
}

// Tools returns every agent tool bound to this workspace.
func (w *Workspace) Tools() []adk.Tool {
	return []adk.Tool{
		&ScanWrapper{Workspace: w},
		&GraphViewerWrapper{Graph: w.Graph},
		&CorrelateWrapper{Workspace: w},
		&GenerateRulesWrapper{Workspace: w},
		&SimulationWrapper{Workspace: w},
		&SaveSnapshotWrapper{Graph: w.Graph},
		&DiffSnapshotWrapper{Graph: w.Graph},
	}
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stringsArg accepts a JSON array or a comma/space separated string.
func stringsArg(args map[string]interface{}, key string) []string {
	var out []string
	switch v := args[key].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		out = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	}
	return out
}

func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// progressOrNop never returns nil.
func progressOrNop(progress func(string)) func(string) {
	if progress == nil {
		return func(string) {}
	}
	return progress
}
