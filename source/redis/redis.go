// Package redis reads flag documents from a Redis server.
package redis

import (
	"context"
	"errors"

	"github.com/fieldday/flagd"
	perrors "github.com/fieldday/flagd/kit/platform/errors"
	"github.com/redis/go-redis/v9"
)

// getter is the subset of the redis client used to read values.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Source reads the string value at prefix+key.
type Source struct {
	client getter
	closer func() error
	prefix string
}

var _ flagd.Source = (*Source)(nil)

// NewSource connects to the server at redisURL and checks the connection.
func NewSource(ctx context.Context, redisURL, prefix string) (*Source, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &perrors.Error{Code: perrors.EInvalid, Op: "redis.NewSource", Msg: "invalid redis url", Err: err}
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, &perrors.Error{Code: perrors.EUnavailable, Op: "redis.NewSource", Msg: "unable to reach redis", Err: err}
	}
	return &Source{client: rdb, closer: rdb.Close, prefix: prefix}, nil
}

// Name implements flagd.Source.
func (s *Source) Name() string { return "redis" }

// Get implements flagd.Source.
func (s *Source) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &perrors.Error{Code: perrors.EUnavailable, Op: "redis.Get", Err: err}
	}
	return b, nil
}

// Close releases the client connection pool.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
