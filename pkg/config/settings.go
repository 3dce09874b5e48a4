package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type setting struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringSetting(field func(c *Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intSetting(field func(c *Config) *int, min int) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("not a number: %q", v)
			}
			if n < min {
				return fmt.Errorf("must be at least %d", min)
			}
			*field(c) = n
			return nil
		},
	}
}

var settings = map[string]setting{
	"selected_provider": stringSetting(func(c *Config) *string { return &c.SelectedProvider }),
	"selected_model":    stringSetting(func(c *Config) *string { return &c.SelectedModel }),
	"rules_path":        stringSetting(func(c *Config) *string { return &c.RulesPath }),
	"feed_path":         stringSetting(func(c *Config) *string { return &c.FeedPath }),
	"feed_url":          stringSetting(func(c *Config) *string { return &c.FeedURL }),
	"feed_sha256_url":   stringSetting(func(c *Config) *string { return &c.FeedSHA256URL }),
	"index_dir":         stringSetting(func(c *Config) *string { return &c.IndexDir }),
	"catalog_path":      stringSetting(func(c *Config) *string { return &c.CatalogPath }),
	"reports_dir":       stringSetting(func(c *Config) *string { return &c.ReportsDir }),
	"embedding_model":   stringSetting(func(c *Config) *string { return &c.EmbeddingModel }),
	"redis_addr":        stringSetting(func(c *Config) *string { return &c.RedisAddr }),
	"redis_password":    stringSetting(func(c *Config) *string { return &c.RedisPassword }),
	"log_level":         stringSetting(func(c *Config) *string { return &c.LogLevel }),
	"workers":           intSetting(func(c *Config) *int { return &c.Workers }, 1),
	"embedding_batch":   intSetting(func(c *Config) *int { return &c.EmbeddingBatch }, 1),
	"redis_db":          intSetting(func(c *Config) *int { return &c.RedisDB }, 0),
}

// SettingKeys lists the keys accepted by Set and Get, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single setting by its YAML key. Provider names are lowercased.
func (c *Config) Set(key, value string) error {
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (one of: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	value = strings.TrimSpace(value)
	if key == "selected_provider" {
		value = strings.ToLower(value)
	}
	if err := s.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Get returns a single setting by its YAML key.
func (c *Config) Get(key string) (string, error) {
	s, ok := settings[key]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return s.get(c), nil
}
