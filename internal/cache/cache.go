// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"
)

// Backend stores generation results as opaque bytes.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Options selects and tunes a backend.
type Options struct {
	// Backend is "none", "memory" or "redis".
	Backend  string
	RedisURL string
	Prefix   string
}

// New returns the configured backend, or nil for "none".
func New(opts Options) (Backend, error) {
	switch opts.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(DefaultMaxEntries), nil
	case "redis":
		prefix := opts.Prefix
		if prefix == "" {
			prefix = "stylecritic:gen:"
		}
		return NewRedisCache(opts.RedisURL, prefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// GenerationKey hashes everything that determines a generation result.
func GenerationKey(systemPrompt, userContent, model, provider string) string {
	hashInput := fmt.Sprintf("%s:::%s:::%s:::%s", userContent, systemPrompt, model, provider)
	return fmt.Sprintf("%x", md5.Sum([]byte(hashInput)))
}
