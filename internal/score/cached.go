package score

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/fundus/internal/cache"
	"github.com/ppiankov/fundus/internal/model"
)

type cached struct {
	inner Scorer
	store cache.Cache
	ttl   time.Duration
}

// Cached memoizes a pure scorer by record fingerprint. A nil store returns s unchanged.
func Cached(s Scorer, store cache.Cache, ttl time.Duration) Scorer {
	if store == nil {
		return s
	}
	return &cached{inner: s, store: store, ttl: ttl}
}

func (c *cached) Name() string { return c.inner.Name() }

func (c *cached) Score(ctx context.Context, r model.Record) (map[string]float64, error) {
	key := cache.Key(c.inner.Name(), r.Fingerprint())
	if scores, ok := c.store.Get(key); ok {
		return scores, nil
	}

	scores, err := c.inner.Score(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(key, scores, c.ttl); err != nil {
		slog.Debug("Score cache write failed", "scorer", c.inner.Name(), "error", err)
	}
	return scores, nil
}
