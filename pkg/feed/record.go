package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NotAvailable marks a record field the feed did not provide, such as a
// record without an English description.
const NotAvailable = "N/A"

// Record is a normalized public vulnerability disclosure.
type Record struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	CVSSScore   *float64   `json:"cvss_score,omitempty"`
	Severity    *string    `json:"severity,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
}

type rawFeed struct {
	CVEItems        []rawItem `json:"CVE_Items"`
	Vulnerabilities []rawItem `json:"vulnerabilities"`
}

type rawItem struct {
	CVE       rawCVE      `json:"cve"`
	Metrics   *rawMetrics `json:"metrics"`
	Published string      `json:"published"`
}

type rawCVE struct {
	ID           string           `json:"id"`
	Descriptions []rawDescription `json:"descriptions"`
	Metrics      *rawMetrics      `json:"metrics"`
	Published    string           `json:"published"`
}

type rawDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type rawMetrics struct {
	CVSSMetricV31 []struct {
		CVSSData struct {
			BaseScore    *float64 `json:"baseScore"`
			BaseSeverity string   `json:"baseSeverity"`
		} `json:"cvssData"`
	} `json:"cvssMetricV31"`
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z",
	"2006-01-02",
}

// Normalize decodes a feed document in either the legacy flat "CVE_Items"
// shape or the nested "vulnerabilities[].cve" shape. Legacy items come first
// when a document carries both.
func Normalize(data []byte) ([]Record, error) {
	var doc rawFeed
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	out := make([]Record, 0, len(doc.CVEItems)+len(doc.Vulnerabilities))
	for _, item := range doc.CVEItems {
		out = append(out, item.normalize())
	}
	for _, item := range doc.Vulnerabilities {
		out = append(out, item.normalize())
	}
	return out, nil
}

func (item rawItem) normalize() Record {
	rec := Record{
		ID:          strings.TrimSpace(item.CVE.ID),
		Description: englishDescription(item.CVE.Descriptions),
	}
	if rec.ID == "" {
		rec.ID = NotAvailable
	}

	metrics := item.Metrics
	if metrics == nil {
		metrics = item.CVE.Metrics
	}
	if metrics != nil && len(metrics.CVSSMetricV31) > 0 {
		data := metrics.CVSSMetricV31[0].CVSSData
		if data.BaseScore != nil {
			score := *data.BaseScore
			rec.CVSSScore = &score
		}
		if data.BaseSeverity != "" {
			severity := data.BaseSeverity
			rec.Severity = &severity
		}
	}

	published := item.Published
	if published == "" {
		published = item.CVE.Published
	}
	rec.Published = parsePublished(published)
	return rec
}

func englishDescription(descs []rawDescription) string {
	for _, d := range descs {
		if d.Lang == "en" {
			return d.Value
		}
	}
	return NotAvailable
}

func parsePublished(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
