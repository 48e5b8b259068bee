package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"time"

	"github.com/ppiankov/fundus/internal/model"
)

// Scores is a memoized label-to-score mapping
type Scores = map[string]float64

// Cache stores scorer outputs by key
type Cache interface {
	Get(key string) (Scores, bool)
	Set(key string, value Scores, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a scorer name and a record fingerprint
func Key(scorer, fingerprint string) string {
	hash := sha256.Sum256([]byte(scorer + "\x00" + fingerprint))
	return "fundus:v1:" + hex.EncodeToString(hash[:])
}

// FromConfig builds the cache described by cfg.
// It returns nil when caching is disabled and a memory-only cache when no directory is set.
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

func clone(s Scores) Scores {
	if s == nil {
		return Scores{}
	}
	return maps.Clone(s)
}
