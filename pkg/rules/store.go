package rules

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// ConfigError reports a rule definition that could not be parsed at all.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid rule definition %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// record is the persisted form of a Rule. Field order here fixes the key
// order of saved files.
type record struct {
	Name           string   `yaml:"name,omitempty"`
	ID             string   `yaml:"id,omitempty"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category,omitempty"`
	Regex          string   `yaml:"regex,omitempty"`
	Payloads       []string `yaml:"payloads,omitempty"`
	Method         string   `yaml:"method,omitempty"`
	Parameter      string   `yaml:"parameter,omitempty"`
	SimulationOnly bool     `yaml:"simulation_only"`
}

type document struct {
	Patterns []yaml.Node `yaml:"patterns"`
}

type savedDocument struct {
	Patterns []record `yaml:"patterns"`
}

// Load reads a rule definition file.
func Load(path string, logger hclog.Logger) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(data, path, logger)
}

// Parse decodes a rule definition. Entries that are not mappings, cannot be
// decoded, or carry neither "id" nor "name" are skipped so partial corpora
// stay usable. Only a document that is not valid YAML fails.
func Parse(data []byte, source string, logger hclog.Logger) (Set, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Set{}, nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}

	out := make([]Rule, 0, len(doc.Patterns))
	for i := range doc.Patterns {
		node := &doc.Patterns[i]
		if node.Kind != yaml.MappingNode {
			logger.Debug("skipping rule entry that is not a mapping", "source", source, "index", i)
			continue
		}
		var rec record
		if err := node.Decode(&rec); err != nil {
			logger.Debug("skipping malformed rule entry", "source", source, "index", i, "error", err)
			continue
		}
		r, ok := rec.toRule()
		if !ok {
			logger.Debug("skipping rule entry without id", "source", source, "index", i)
			continue
		}
		out = append(out, r)
	}
	set := NewSet(out...)
	if len(set) != len(out) {
		logger.Debug("dropped duplicate rule ids", "source", source, "count", len(out)-len(set))
	}
	return set, nil
}

// Encode serializes rules deterministically.
func Encode(set Set) ([]byte, error) {
	doc := savedDocument{Patterns: make([]record, 0, len(set))}
	for _, r := range set {
		doc.Patterns = append(doc.Patterns, fromRule(r))
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes rules to path, creating parent directories as needed.
func Save(set Set, path string) error {
	data, err := Encode(set)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create rules dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (rec record) toRule() (Rule, bool) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = strings.TrimSpace(rec.Name)
	}
	if id == "" {
		return Rule{}, false
	}
	parameter := strings.TrimSpace(rec.Parameter)
	if parameter == "" {
		parameter = DefaultParameter
	}
	return Rule{
		ID:             id,
		Description:    rec.Description,
		Regex:          rec.Regex,
		Payloads:       append([]string(nil), rec.Payloads...),
		Category:       ParseCategory(rec.Category),
		Method:         ParseMethod(rec.Method),
		Parameter:      parameter,
		SimulationOnly: rec.SimulationOnly,
	}, true
}

func fromRule(r Rule) record {
	category := r.Category
	if category == "" {
		category = CategoryUnknown
	}
	method := r.Method
	if method == "" {
		method = MethodGet
	}
	parameter := r.Parameter
	if parameter == "" {
		parameter = DefaultParameter
	}
	return record{
		Name:           r.ID,
		Description:    r.Description,
		Category:       string(category),
		Regex:          r.Regex,
		Payloads:       r.Payloads,
		Method:         string(method),
		Parameter:      parameter,
		SimulationOnly: r.SimulationOnly,
	}
}
