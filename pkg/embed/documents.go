package embed

import (
	"context"
	"fmt"

	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/vecindex"
)

// Document is a text to index under a record id.
type Document struct {
	ID   string
	Text string
}

// FromRecords skips records without an id or description.
func FromRecords(records []feed.Record) []Document {
	docs := make([]Document, 0, len(records))
	for _, r := range records {
		if r.ID == feed.NotAvailable || r.Description == feed.NotAvailable || r.Description == "" {
			continue
		}
		docs = append(docs, Document{ID: r.ID, Text: r.Description})
	}
	return docs
}

// FromRules indexes rules by their descriptions.
func FromRules(set rules.Set) []Document {
	docs := make([]Document, 0, len(set))
	for _, r := range set {
		if r.Description == "" {
			continue
		}
		docs = append(docs, Document{ID: r.ID, Text: r.Description})
	}
	return docs
}

// BuildEntries embeds docs and pairs each vector with its document, in order.
func BuildEntries(ctx context.Context, e Embedder, docs []Document) ([]vecindex.Entry, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return nil, fmt.Errorf("embed documents: expected %d vectors, got %d", len(docs), len(vecs))
	}
	entries := make([]vecindex.Entry, len(docs))
	for i, d := range docs {
		entries[i] = vecindex.Entry{RecordID: d.ID, Vector: vecs[i], Description: d.Text}
	}
	return entries, nil
}
