package correlate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/embed"
	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/vecindex"
)

// ErrEmptyInput is returned for blank query text.
var ErrEmptyInput = errors.New("correlate: empty query text")

// Lookup resolves a record id to its full record.
type Lookup interface {
	Lookup(ctx context.Context, id string) (feed.Record, bool, error)
}

// Candidate is one related record, closest first.
type Candidate struct {
	Rank        int
	RecordID    string
	Description string
	Distance    float64
	Rule        *rules.Rule  // rule sharing the record id, if any
	Record      *feed.Record // catalog entry, if a catalog is attached
}

// Engine relates free text to indexed vulnerability records. It holds no
// state beyond its collaborators and is safe for concurrent use when they are.
type Engine struct {
	Embedder embed.Embedder
	Index    *vecindex.Index
	Rules    rules.Set
	Records  Lookup
	Logger   hclog.Logger
}

// Correlate embeds text and returns up to k nearest records. k <= 0 returns
// every indexed record.
func (e *Engine) Correlate(ctx context.Context, text string, k int) ([]Candidate, error) {
	logger := e.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if e.Index == nil || e.Index.Len() == 0 {
		return nil, nil
	}

	vec, err := embed.One(ctx, e.Embedder, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := e.Index.Query(vec, k)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, len(hits))
	for i, h := range hits {
		c := Candidate{
			Rank:        i + 1,
			RecordID:    h.RecordID,
			Description: h.Description,
			Distance:    h.Distance,
		}
		if r, ok := e.Rules.Get(h.RecordID); ok {
			c.Rule = &r
		}
		if e.Records != nil {
			rec, ok, err := e.Records.Lookup(ctx, h.RecordID)
			if err != nil {
				logger.Warn("record lookup failed", "id", h.RecordID, "error", err)
			} else if ok {
				c.Record = &rec
			}
		}
		out[i] = c
	}
	logger.Debug("correlated", "candidates", len(out))
	return out, nil
}
