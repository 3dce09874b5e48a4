package embed

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// Cache stores vectors by key. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// CacheKey identifies the embedding of text under model.
func CacheKey(model, text string) string {
	return fmt.Sprintf("emb:%s:%016x", model, xxhash.Sum64String(text))
}

// EncodeVector encodes vec as little-endian float32 values.
func EncodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embed: invalid vector blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// RedisCache keeps vectors in redis.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := DecodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	return c.rdb.Set(ctx, key, EncodeVector(vec), c.ttl).Err()
}

func (c *RedisCache) Close() error { return c.rdb.Close() }

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string][]float32
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string][]float32)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), v...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = append([]float32(nil), vec...)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// CachedEmbedder serves repeated texts from a Cache and embeds only misses.
// Cache failures are logged and fall through to the inner embedder.
type CachedEmbedder struct {
	Inner  Embedder
	Cache  Cache
	Model  string
	Logger hclog.Logger
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		vec, ok, err := c.Cache.Get(ctx, CacheKey(c.Model, t))
		if err != nil {
			logger.Warn("embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	logger.Debug("embedding cache", "hits", len(texts)-len(missIdx), "misses", len(missIdx))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.Inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed: expected %d vectors, got %d", len(missTexts), len(vecs))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := c.Cache.Set(ctx, CacheKey(c.Model, missTexts[j]), vecs[j]); err != nil {
			logger.Warn("embedding cache write failed", "error", err)
		}
	}
	return out, nil
}
