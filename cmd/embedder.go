package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/user/vulnscan-adk/pkg/embed"
)

var (
	offlineEmbedder bool
	offlineDim      int
)

const embeddingCacheTTL = 30 * 24 * time.Hour

// newEmbedder returns the configured embedder and a cleanup func. Without a
// Gemini key, or with --offline, the hashing embedder is used. When a redis
// address is configured, vectors are cached there.
func newEmbedder(ctx context.Context) (embed.Embedder, func(), error) {
	noop := func() {}
	apiKey := AppConfig.ResolveAPIKey("gemini")
	if offlineEmbedder || apiKey == "" {
		if !offlineEmbedder {
			Logger.Warn("no Gemini API key configured, using offline embedder")
		}
		return embed.NewHashEmbedder(offlineDim), noop, nil
	}

	gemini, err := embed.NewGeminiEmbedder(ctx, apiKey, AppConfig.EmbeddingModel, AppConfig.EmbeddingBatch, Logger.Named("embed"))
	if err != nil {
		return nil, noop, fmt.Errorf("create embedder: %w", err)
	}
	cleanup := func() { gemini.Close() }
	if AppConfig.RedisAddr == "" {
		return gemini, cleanup, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	cache, err := embed.NewRedisCache(pingCtx, AppConfig.RedisAddr, AppConfig.RedisPassword, AppConfig.RedisDB, embeddingCacheTTL)
	if err != nil {
		Logger.Warn("embedding cache disabled", "addr", AppConfig.RedisAddr, "error", err)
		return gemini, cleanup, nil
	}
	Logger.Debug("embedding cache enabled", "addr", AppConfig.RedisAddr)
	return &embed.CachedEmbedder{
			Inner:  gemini,
			Cache:  cache,
			Model:  gemini.Model(),
			Logger: Logger.Named("embed"),
		}, func() {
			cache.Close()
			gemini.Close()
		}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offlineEmbedder, "offline", false, "Use the offline hashing embedder instead of Gemini")
	rootCmd.PersistentFlags().IntVar(&offlineDim, "offline-dim", 256, "Vector dimension of the offline embedder")
}
