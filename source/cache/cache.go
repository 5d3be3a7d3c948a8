// Package cache decorates a flagd.Source with a TTL cache.
package cache

import (
	"context"
	"time"

	"github.com/fieldday/flagd"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched value is served before the next fetch.
const DefaultTTL = 30 * time.Second

// Source caches Get results of the wrapped source, including absences.
// Errors are never cached.
type Source struct {
	next  flagd.Source
	cache *ttlcache.Cache[string, []byte]
	group singleflight.Group
}

var _ flagd.Source = (*Source)(nil)

// NewSource wraps next. A non positive ttl uses DefaultTTL. Call Close to
// stop the expiry loop.
func NewSource(next flagd.Source, ttl time.Duration) *Source {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := ttlcache.New(
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &Source{next: next, cache: c}
}

// Name reports the wrapped source.
func (s *Source) Name() string { return s.next.Name() }

// Unwrap returns the decorated source.
func (s *Source) Unwrap() flagd.Source { return s.next }

// Get implements flagd.Source. Concurrent misses for the same key share one
// fetch from the wrapped source. The shared fetch outlives a caller that gives
// up; each caller still returns when its own ctx is done.
func (s *Source) Get(ctx context.Context, key string) ([]byte, error) {
	if item := s.cache.Get(key); item != nil {
		return clone(item.Value()), nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if item := s.cache.Get(key); item != nil {
			return item.Value(), nil
		}
		b, err := s.next.Get(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, b, ttlcache.DefaultTTL)
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]byte)), nil
	}
}

// Invalidate drops the cached value for key.
func (s *Source) Invalidate(key string) {
	s.cache.Delete(key)
}

// Close stops the expiry loop.
func (s *Source) Close() error {
	s.cache.Stop()
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
