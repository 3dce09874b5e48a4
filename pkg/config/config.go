package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRulesPath      = "rules/patterns.yml"
	DefaultFeedPath       = "data/nvd/recent.json"
	DefaultFeedURL        = "https://nvd.nist.gov/feeds/json/cve/2.0/nvdcve-2.0-recent.json.gz"
	DefaultIndexDir       = "data/index"
	DefaultCatalogPath    = "data/catalog.db"
	DefaultReportsDir     = "reports"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultEmbeddingBatch = 100
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`

	RulesPath     string `yaml:"rules_path,omitempty"`
	FeedPath      string `yaml:"feed_path,omitempty"`
	FeedURL       string `yaml:"feed_url,omitempty"`
	FeedSHA256URL string `yaml:"feed_sha256_url,omitempty"`
	IndexDir      string `yaml:"index_dir,omitempty"`
	CatalogPath   string `yaml:"catalog_path,omitempty"`
	ReportsDir    string `yaml:"reports_dir,omitempty"`
	Workers       int    `yaml:"workers,omitempty"`

	EmbeddingModel string `yaml:"embedding_model,omitempty"`
	EmbeddingBatch int    `yaml:"embedding_batch,omitempty"`
	RedisAddr      string `yaml:"redis_addr,omitempty"`
	RedisPassword  string `yaml:"redis_password,omitempty"`
	RedisDB        int    `yaml:"redis_db,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
}

// LoadEnv reads a .env file from the working directory if one exists.
// A missing file is not an error.
func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(".env")
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".vulnscan-adk")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads the config at path. A missing file yields the defaults.
func LoadConfigFrom(path string) (*Config, error) {
	cfg, err := ReadConfigFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// ReadConfigFile reads only what is stored at path, without environment
// overrides or defaults. It is the form to edit and save back.
func ReadConfigFile(path string) (*Config, error) {
	cfg := &Config{
		SelectedProvider: "gemini",
		SelectedModel:    "gemini-pro",
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(cfg, path)
}

// SaveConfigTo writes cfg to path with owner-only permissions, since it
// holds API keys.
func SaveConfigTo(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}

// ResolveAPIKey returns the configured key for provider, falling back to the
// provider's conventional environment variable.
func (c *Config) ResolveAPIKey(provider string) string {
	if key := c.GetAPIKey(provider); key != "" {
		return key
	}
	switch provider {
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VULNSCAN_LOG_LEVEL"); v != "" && c.LogLevel == "" {
		c.LogLevel = v
	}
	if v := os.Getenv("VULNSCAN_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("VULNSCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.RulesPath == "" {
		c.RulesPath = DefaultRulesPath
	}
	if c.FeedPath == "" {
		c.FeedPath = DefaultFeedPath
	}
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
	if c.IndexDir == "" {
		c.IndexDir = DefaultIndexDir
	}
	if c.CatalogPath == "" {
		c.CatalogPath = DefaultCatalogPath
	}
	if c.ReportsDir == "" {
		c.ReportsDir = DefaultReportsDir
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.EmbeddingBatch <= 0 {
		c.EmbeddingBatch = DefaultEmbeddingBatch
	}
}
