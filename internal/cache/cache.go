// Package cache stores interpretation results in Redis keyed by prompt and
// schema fingerprint. Identical prompts against an unchanged schema are a
// common pattern when users iterate on a scene, and a cache hit skips the
// whole model round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zoobzio/dendrite"
)

// Entry is the cached subset of an interpretation result. Raw output and
// token usage are per-call artifacts and are not cached.
type Entry struct {
	Params       dendrite.ParameterSet `json:"params"`
	UsedDefaults bool                  `json:"used_defaults"`
	Confidence   float64               `json:"confidence"`
}

// Cache wraps a Redis client with result-specific get/set.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// New creates a cache backed by Redis.
func New(cfg Config) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Cache{client: client, ttl: cfg.TTL}
}

// Ping tests the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Key derives a cache key from the prompt and the schema it was interpreted
// against. Any schema change invalidates old entries by changing the key.
func Key(prompt string, schema *dendrite.Schema) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(schema.SpecBlock()))
	return "dendrite:interpret:" + hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached entry. The second return is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return nil, false, nil
	}
	return &entry, true, nil
}

// Set stores an entry under the key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
