package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("VULNSCAN_LOG_LEVEL", "")
	t.Setenv("VULNSCAN_REDIS_ADDR", "")
	t.Setenv("VULNSCAN_WORKERS", "")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.SelectedProvider)
	assert.Equal(t, DefaultRulesPath, cfg.RulesPath)
	assert.Equal(t, DefaultIndexDir, cfg.IndexDir)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, DefaultEmbeddingBatch, cfg.EmbeddingBatch)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.NotNil(t, cfg.Providers)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("VULNSCAN_REDIS_ADDR", "")
	t.Setenv("VULNSCAN_WORKERS", "")
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	cfg.SetAPIKey("gemini", "secret")
	cfg.RulesPath = "custom/rules.yml"
	cfg.Workers = 3
	require.NoError(t, SaveConfigTo(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.GetAPIKey("gemini"))
	assert.Equal(t, "custom/rules.yml", loaded.RulesPath)
	assert.Equal(t, 3, loaded.Workers)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("VULNSCAN_REDIS_ADDR", "cache:6379")
	t.Setenv("VULNSCAN_WORKERS", "7")
	t.Setenv("GOOGLE_API_KEY", "from-env")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "from-env", cfg.ResolveAPIKey("gemini"))

	cfg.SetAPIKey("gemini", "from-config")
	assert.Equal(t, "from-config", cfg.ResolveAPIKey("gemini"))
}

func TestLoadConfigFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: [unterminated"), 0600))

	_, err := LoadConfigFrom(path)
	assert.Error(t, err)
}

func TestSetAndGet(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{}}

	require.NoError(t, cfg.Set("rules_path", " custom/rules.yml "))
	require.NoError(t, cfg.Set("workers", "4"))
	require.NoError(t, cfg.Set("redis_db", "0"))
	require.NoError(t, cfg.Set("selected_provider", "OpenAI"))

	assert.Equal(t, "custom/rules.yml", cfg.RulesPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "openai", cfg.SelectedProvider)

	v, err := cfg.Get("workers")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.Set("nope", "x"), "unknown setting")
	assert.ErrorContains(t, cfg.Set("workers", "many"), "not a number")
	assert.ErrorContains(t, cfg.Set("workers", "0"), "at least 1")
	_, err := cfg.Get("nope")
	assert.Error(t, err)
}

func TestSettingKeysCoverYAMLFields(t *testing.T) {
	keys := SettingKeys()
	assert.IsIncreasing(t, keys)
	for _, k := range []string{"rules_path", "index_dir", "embedding_model", "redis_addr", "workers"} {
		assert.Contains(t, keys, k)
	}
}

func TestReadConfigFileSkipsEnvAndDefaults(t *testing.T) {
	t.Setenv("VULNSCAN_REDIS_ADDR", "localhost:6379")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index_dir: idx\n"), 0600))

	cfg, err := ReadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "idx", cfg.IndexDir)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.RulesPath)

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", loaded.RedisAddr)
	assert.Equal(t, DefaultRulesPath, loaded.RulesPath)
}
