// Package loader fetches catalog documents through a TTL cache. Every catalog
// accessor goes through FetchData; nothing else touches the cache store.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pelyams/sneaker_house_service/internal/domain"
	"github.com/pelyams/sneaker_house_service/internal/ports"
)

const DefaultTTL = 5 * time.Minute

type Config struct {
	// DefaultTTL applies when a fetch does not set its own TTL.
	DefaultTTL time.Duration
	// Coalesce makes concurrent misses for one key share a single retrieval.
	Coalesce bool
}

type Loader struct {
	cache   ports.Cache
	source  ports.Source
	cfg     Config
	log     logrus.FieldLogger
	metrics *metrics
	group   singleflight.Group
	// joined, if set, runs once a caller is registered with a shared retrieval.
	joined func(key string)
}

func New(cache ports.Cache, source ports.Source, cfg Config, log logrus.FieldLogger) (*Loader, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("loader metrics: %w", err)
	}
	return &Loader{
		cache:   cache,
		source:  source,
		cfg:     cfg,
		log:     log.WithField("component", "loader"),
		metrics: m,
	}, nil
}

// Options tune a single FetchData call. The zero value caches with the
// loader's default TTL and propagates failures.
type Options[T any] struct {
	SkipCache bool
	TTL       time.Duration
	// Fallback is returned instead of an error when retrieval fails.
	Fallback *T
	// OnFallback, if set, receives the error that Fallback replaced.
	OnFallback func(error)
}

// validator is implemented by payloads that check their own schema.
type validator interface {
	Validate() error
}

// FetchData returns the document stored under key decoded as T.
//
// A fresh cache entry is returned without touching the source. Otherwise the
// source is asked for the document, which is decoded and validated before it
// is cached. On failure the fallback is returned when one was supplied.
func FetchData[T any](ctx context.Context, l *Loader, key string, opts Options[T]) (T, error) {
	var zero T
	if key == "" {
		return zero, fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}
	ttl := opts.TTL
	switch {
	case ttl == 0:
		ttl = l.cfg.DefaultTTL
	case ttl < 0:
		return zero, fmt.Errorf("%w: negative ttl %s", domain.ErrInvalidInput, ttl)
	}

	if !opts.SkipCache {
		if v, ok := cached[T](ctx, l, key); ok {
			l.metrics.hit(ctx, key)
			return v, nil
		}
		l.metrics.miss(ctx, key)
	}

	v, data, err := retrieve[T](ctx, l, key)
	if err != nil {
		l.metrics.failure(ctx, key)
		if opts.Fallback != nil {
			l.metrics.fallback(ctx, key)
			l.log.WithError(err).WithField("key", key).Warn("serving fallback data")
			if opts.OnFallback != nil {
				opts.OnFallback(err)
			}
			return *opts.Fallback, nil
		}
		return zero, err
	}

	if !opts.SkipCache {
		if err := l.cache.Set(ctx, key, data, ttl); err != nil {
			l.log.WithError(err).WithField("key", key).Warn("failed to store fetched data")
		}
	}
	return v, nil
}

// cached decodes a fresh entry. Store errors and undecodable entries count as
// a miss; the latter are dropped so the next fetch replaces them.
func cached[T any](ctx context.Context, l *Loader, key string) (T, bool) {
	var v T
	data, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.log.WithError(err).WithField("key", key).Warn("cache lookup failed")
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		l.log.WithError(err).WithField("key", key).Warn("dropping undecodable cache entry")
		_ = l.cache.Delete(ctx, key)
		return v, false
	}
	return v, true
}

// retrieve asks the source for key and returns both the decoded value and the
// compacted bytes that should be cached.
func retrieve[T any](ctx context.Context, l *Loader, key string) (T, []byte, error) {
	var v T
	raw, err := l.fromSource(ctx, key)
	if err != nil {
		var re *domain.RetrievalError
		if !errors.As(err, &re) {
			err = &domain.RetrievalError{Key: key, Status: "source failure", Err: err}
		}
		return v, nil, err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return v, nil, &domain.ParseError{Key: key, Err: err}
	}
	data := buf.Bytes()
	if err := json.Unmarshal(data, &v); err != nil {
		return v, nil, &domain.ParseError{Key: key, Err: err}
	}
	if val, ok := any(&v).(validator); ok {
		if err := val.Validate(); err != nil {
			return v, nil, &domain.SchemaError{Key: key, Err: err}
		}
	}
	return v, data, nil
}

// fromSource retrieves key, sharing one retrieval among concurrent callers
// when coalescing is on. The shared call is detached from any single caller's
// cancellation; each caller still stops waiting when its own ctx is done.
func (l *Loader) fromSource(ctx context.Context, key string) ([]byte, error) {
	if !l.cfg.Coalesce {
		return l.source.Retrieve(ctx, key)
	}
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		return l.source.Retrieve(shared, key)
	})
	if l.joined != nil {
		l.joined(key)
	}
	select {
	case res := <-ch:
		if res.Shared {
			l.log.WithField("key", key).Debug("joined in-flight retrieval")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &domain.RetrievalError{Key: key, Status: "canceled", Err: ctx.Err()}
	}
}

func (l *Loader) ClearCache(ctx context.Context) error {
	if err := l.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (l *Loader) InvalidateKey(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}
	if err := l.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// CacheStats never fails: a store that cannot report is logged and shown as empty.
func (l *Loader) CacheStats(ctx context.Context) domain.CacheStats {
	stats, err := l.cache.Stats(ctx)
	if err != nil {
		l.log.WithError(err).Warn("cache stats unavailable")
		return domain.CacheStats{Entries: []domain.CacheEntryStats{}}
	}
	if stats.Entries == nil {
		stats.Entries = []domain.CacheEntryStats{}
	}
	return stats
}
