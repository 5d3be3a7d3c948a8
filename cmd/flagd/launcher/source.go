package launcher

import (
	"context"
	"io"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/source/bolt"
	"github.com/fieldday/flagd/source/cache"
	"github.com/fieldday/flagd/source/edgeconfig"
	"github.com/fieldday/flagd/source/file"
	"github.com/fieldday/flagd/source/redis"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// OpenSource opens the backend c selects. The returned closer releases it and
// must be called even when the source is nil. A nil source means defaults only.
func OpenSource(ctx context.Context, log *zap.Logger, c Config) (flagd.Source, io.Closer, error) {
	src, closer, err := openBackend(ctx, log, c)
	if err != nil || src == nil {
		return src, closer, err
	}

	if c.CacheTTL > 0 {
		cached := cache.NewSource(src, c.CacheTTL)
		inner := closer
		closer = closerFunc(func() error {
			return multierr.Append(cached.Close(), inner.Close())
		})
		src = cached
	}
	return src, closer, nil
}

// unwrapSource returns the backend beneath any source decorators.
func unwrapSource(src flagd.Source) flagd.Source {
	for {
		u, ok := src.(interface{ Unwrap() flagd.Source })
		if !ok {
			return src
		}
		src = u.Unwrap()
	}
}

func openBackend(ctx context.Context, log *zap.Logger, c Config) (flagd.Source, io.Closer, error) {
	switch {
	case c.EdgeConfig != nil:
		src, err := edgeconfig.NewSource(edgeconfig.Config{
			BaseURL:  c.EdgeConfig.BaseURL,
			ConfigID: c.EdgeConfig.ConfigID,
			Token:    c.EdgeConfig.Token,
			Timeout:  c.EdgeConfig.Timeout,
		})
		if err != nil {
			return nil, nopCloser, err
		}
		return src, nopCloser, nil

	case c.Redis != nil:
		src, err := redis.NewSource(ctx, c.Redis.URL, c.Redis.Prefix)
		if err != nil {
			return nil, nopCloser, err
		}
		return src, src, nil

	case c.Bolt != nil:
		store := bolt.NewStore(log.With(zap.String("service", "bolt")), c.Bolt.Path)
		if err := store.Open(ctx); err != nil {
			return nil, nopCloser, err
		}
		return store, store, nil

	case c.File != nil:
		src, err := file.NewSource(c.File.Path)
		if err != nil {
			return nil, nopCloser, err
		}
		return src, nopCloser, nil
	}

	return nil, nopCloser, nil
}
