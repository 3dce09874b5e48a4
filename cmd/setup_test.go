package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vulnscan-adk/pkg/config"
)

func newWizard(input string, models modelLister) (*wizard, *bytes.Buffer) {
	var out bytes.Buffer
	return &wizard{
		in:        bufio.NewScanner(strings.NewReader(input)),
		out:       &out,
		models:    models,
		effective: &config.Config{RulesPath: config.DefaultRulesPath, IndexDir: config.DefaultIndexDir, EmbeddingModel: config.DefaultEmbeddingModel},
	}, &out
}

func staticModels(models ...string) modelLister {
	return func(context.Context, string, string) ([]string, error) { return models, nil }
}

func TestWizardSetsProviderAndScannerSettings(t *testing.T) {
	input := strings.Join([]string{
		"2",                  // openai
		"sk-test",            // key
		"2",                  // second model
		"custom/rules.yml",   // rule file
		"",                   // index dir keeps default
		"text-embedding-005", // embedding model
		"localhost:6379",     // redis
	}, "\n") + "\n"
	w, out := newWizard(input, staticModels("gpt-4o", "gpt-4o-mini"))
	cfg := &config.Config{Providers: map[string]config.ProviderConfig{}}

	require.NoError(t, w.run(context.Background(), cfg))

	assert.Equal(t, "openai", cfg.SelectedProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.SelectedModel)
	assert.Equal(t, "sk-test", cfg.GetAPIKey("openai"))
	assert.Equal(t, "custom/rules.yml", cfg.RulesPath)
	assert.Equal(t, config.DefaultIndexDir, cfg.IndexDir)
	assert.Equal(t, "text-embedding-005", cfg.EmbeddingModel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Contains(t, out.String(), "Index directory [data/index] > ")
}

func TestWizardKeepsStoredKeyAndFallsBackToManualModel(t *testing.T) {
	input := "gemini\n\ngemini-1.5-flash\n\n\n\n-\n"
	failing := func(context.Context, string, string) ([]string, error) { return nil, errors.New("offline") }
	w, out := newWizard(input, failing)
	cfg := &config.Config{Providers: map[string]config.ProviderConfig{}, RedisAddr: "old:6379"}
	cfg.SetAPIKey("gemini", "stored-key")

	require.NoError(t, w.run(context.Background(), cfg))

	assert.Equal(t, "stored-key", cfg.GetAPIKey("gemini"))
	assert.Equal(t, "gemini-1.5-flash", cfg.SelectedModel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Contains(t, out.String(), "could not fetch models: offline")
}

func TestWizardRejectsUnknownProviderAndMissingKey(t *testing.T) {
	w, _ := newWizard("9\n", staticModels())
	assert.ErrorContains(t, w.run(context.Background(), &config.Config{Providers: map[string]config.ProviderConfig{}}), "unknown provider")

	w, _ = newWizard("anthropic\n\n", staticModels())
	assert.ErrorContains(t, w.run(context.Background(), &config.Config{Providers: map[string]config.ProviderConfig{}}), "API key is required")
}

func TestPickProvider(t *testing.T) {
	p, err := pickProvider(" OpenAI ")
	require.NoError(t, err)
	assert.Equal(t, "openai", p)
	p, err = pickProvider("1")
	require.NoError(t, err)
	assert.Equal(t, "gemini", p)
	_, err = pickProvider("")
	assert.Error(t, err)
}
