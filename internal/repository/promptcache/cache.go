// Package promptcache caches completion outputs in Redis. It fronts the
// Query Classifier's completer: the category of an identical question does not
// change between turns, so repeat classifications skip the model call.
package promptcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
)

const cacheKeyPrefix = "structai:prompt_cache:"

// errCacheMiss signals an absent cache entry.
var errCacheMiss = errors.New("cache miss")

// store is the consumer interface for the prompt cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedCompleter caches completion text in a key-value store.
type CachedCompleter struct {
	inner      domain.Completer
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Completer,
	s store,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCompleter {
	return &CachedCompleter{
		inner:      inner,
		store:      s,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Complete returns a cached completion or calls the inner completer.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full CompletionResult from inner; only successes are stored.
func (c *CachedCompleter) Complete(
	ctx context.Context, model, prompt string,
) (domain.CompletionResult, error) {
	key := cacheKey(model, prompt)

	if text, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.CompletionResult{Text: text}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Complete(ctx, model, prompt)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete prompt: %w", err)
	}

	c.putToCache(ctx, key, result.Text)
	return result, nil
}

func (c *CachedCompleter) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedCompleter) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errCacheMiss) {
			c.logger.Warn("Failed to get cached completion", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCompleter) putToCache(ctx context.Context, key, text string) {
	if text == "" {
		return
	}
	if err := c.store.Set(ctx, key, []byte(text)); err != nil {
		c.logger.Warn("Failed to cache completion", zap.String("key", key), zap.Error(err))
	}
}

// entryTTL bounds how long a cached classification stays valid. The index is
// maintained elsewhere; category vocabularies change rarely.
const entryTTL = 24 * time.Hour
