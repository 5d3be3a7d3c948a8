// Package resolver turns a remote flag document into a FlagSet.
//
// Resolution never fails: when the remote source errors, is empty or holds
// something other than a flag object, the Default FlagSet is returned and the
// problem is logged at warn level.
package resolver

import (
	"bytes"
	"context"

	"github.com/benbjohnson/clock"
	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/feature"
	"github.com/fieldday/flagd/kit/tracing"
	"github.com/fieldday/flagd/logger"
	"github.com/opentracing/opentracing-go/log"
	"go.uber.org/zap"
)

// Service resolves flags against a Source. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	source    flagd.Source
	key       string
	defaults  flagd.FlagSet
	overrides flagd.FlagSet
	log       *zap.Logger
	clock     clock.Clock
	metrics   *metrics
}

var _ feature.Flagger = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithKey sets the key the flag document is read from.
func WithKey(key string) Option {
	return func(s *Service) {
		s.key = key
	}
}

// WithDefaults replaces the registered flag defaults.
func WithDefaults(defaults flagd.FlagSet) Option {
	return func(s *Service) {
		s.defaults = defaults.Clone()
	}
}

// WithOverrides pins flag values above anything the source returns.
func WithOverrides(overrides flagd.FlagSet) Option {
	return func(s *Service) {
		s.overrides = overrides.Clone()
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithClock sets the clock snapshots are stamped with.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// NewService returns a Service reading from src. A nil src always resolves
// to the defaults.
func NewService(src flagd.Source, opts ...Option) *Service {
	s := &Service{
		source:   src,
		key:      flagd.DefaultConfigKey,
		defaults: feature.Defaults(),
		log:      zap.NewNop(),
		clock:    clock.New(),
		metrics:  newMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Defaults returns a copy of the Default FlagSet.
func (s *Service) Defaults() flagd.FlagSet {
	return s.defaults.Clone()
}

// FlagSet fetches the remote flags and merges them over the defaults. The
// result always holds every default key.
func (s *Service) FlagSet(ctx context.Context) flagd.FlagSet {
	set, _ := s.resolve(ctx)
	return set
}

// Snapshot is FlagSet plus where the values came from and when.
func (s *Service) Snapshot(ctx context.Context) flagd.Snapshot {
	set, source := s.resolve(ctx)
	return flagd.Snapshot{
		Flags:     set,
		Source:    source,
		Timestamp: s.clock.Now().UTC(),
	}
}

// Flags implements feature.Flagger. It never returns an error.
func (s *Service) Flags(ctx context.Context, _ ...feature.Flag) (map[string]interface{}, error) {
	return s.FlagSet(ctx).Map(), nil
}

func (s *Service) resolve(ctx context.Context) (flagd.FlagSet, string) {
	set, source := s.fetch(ctx)
	if len(s.overrides) > 0 {
		set = set.Merge(s.overrides)
	}
	return set, source
}

func (s *Service) fetch(ctx context.Context) (flagd.FlagSet, string) {
	if s.source == nil {
		return s.defaults.Clone(), flagd.SourceDefaults
	}

	name := s.source.Name()
	span, ctx := tracing.StartSpanFromContextWithOperationName(ctx, "resolver.resolve")
	defer span.Finish()
	span.LogFields(log.String("source", name), log.String("key", s.key))

	lg := logger.FromContextOr(ctx, s.log).With(
		zap.String("source", name),
		zap.String("key", s.key),
	)

	start := s.clock.Now()
	b, err := s.source.Get(ctx, s.key)
	s.metrics.observe(name, s.clock.Now().Sub(start))
	if err != nil {
		_ = tracing.LogError(span, err)
		s.metrics.fetched(name, resultError)
		lg.Warn("Unable to fetch feature flags, using defaults", zap.Error(err))
		return s.defaults.Clone(), flagd.SourceDefaults
	}

	if len(bytes.TrimSpace(b)) == 0 {
		s.metrics.fetched(name, resultEmpty)
		lg.Warn("No feature flags configured, using defaults")
		return s.defaults.Clone(), flagd.SourceDefaults
	}

	remote, invalid, err := flagd.DecodeFlagSet(b)
	if err != nil {
		_ = tracing.LogError(span, err)
		s.metrics.fetched(name, resultMalformed)
		lg.Warn("Malformed feature flags, using defaults", zap.Error(err))
		return s.defaults.Clone(), flagd.SourceDefaults
	}
	if len(invalid) > 0 {
		lg.Warn("Ignoring malformed feature flag values", zap.Strings("flags", invalid))
	}

	if len(remote) == 0 {
		result := resultEmpty
		if len(invalid) > 0 {
			result = resultMalformed
		}
		s.metrics.fetched(name, result)
		lg.Warn("No usable feature flags configured, using defaults")
		return s.defaults.Clone(), flagd.SourceDefaults
	}

	s.metrics.fetched(name, resultOK)
	return s.defaults.Merge(remote), name
}
