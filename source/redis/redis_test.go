package redis

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/fieldday/flagd/kit/platform/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	values map[string]string
	err    error
	keys   []string
}

func (f *fakeGetter) Get(_ context.Context, key string) *redis.StringCmd {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestSource_Get(t *testing.T) {
	g := &fakeGetter{values: map[string]string{"flagd:featureFlags": `{"aiCoachEnabled":false}`}}
	s := &Source{client: g, prefix: "flagd:"}
	ctx := context.Background()

	assert.Equal(t, "redis", s.Name())

	b, err := s.Get(ctx, "featureFlags")
	require.NoError(t, err)
	assert.JSONEq(t, `{"aiCoachEnabled":false}`, string(b))

	b, err = s.Get(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, b)

	assert.Equal(t, []string{"flagd:featureFlags", "flagd:other"}, g.keys)
	assert.NoError(t, s.Close())
}

func TestSource_GetError(t *testing.T) {
	s := &Source{client: &fakeGetter{err: errors.New("i/o timeout")}}

	_, err := s.Get(context.Background(), "featureFlags")
	require.Error(t, err)
	assert.Equal(t, perrors.EUnavailable, perrors.ErrorCode(err))
}

func TestNewSource_BadURL(t *testing.T) {
	_, err := NewSource(context.Background(), "not a url", "")
	require.Error(t, err)
	assert.Equal(t, perrors.EInvalid, perrors.ErrorCode(err))
}
