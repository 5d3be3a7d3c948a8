// Package feature declares the product's feature flags and the plumbing to
// read them from a request context or directly from a Flagger.
package feature

import (
	"context"
	"strings"

	"github.com/fieldday/flagd"
)

type contextKey string

const featureContextKey contextKey = "feature"

// Flagger returns flag values.
type Flagger interface {
	// Flags returns a map of flag keys to flag values.
	//
	// If an authenticated context is provided one of the flags returned by
	// the flagger may be keyed to the subject in the context.
	Flags(context.Context, ...Flag) (map[string]interface{}, error)
}

// Annotate the context with a map computed of computed flags.
func Annotate(ctx context.Context, f Flagger, flags ...Flag) (context.Context, error) {
	computed, err := f.Flags(ctx, flags...)
	if err != nil {
		return nil, err
	}

	annotated := make(map[string]interface{}, len(computed)+len(flags))
	for k, v := range computed {
		annotated[k] = v
	}
	for _, flag := range flags {
		if _, ok := annotated[flag.Key()]; !ok {
			annotated[flag.Key()] = flag.Default()
		}
	}

	return context.WithValue(ctx, featureContextKey, annotated), nil
}

// FlagsFromContext returns the map of flags attached to the context
// by Annotate, or nil if none is found.
func FlagsFromContext(ctx context.Context) map[string]interface{} {
	v, _ := ctx.Value(featureContextKey).(map[string]interface{})
	return v
}

type ByKeyFn func(string) (Flag, bool)

// ExposedFlagsFromContext returns the filtered map of exposed flags attached
// to the context by Annotate, or nil if none is found.
func ExposedFlagsFromContext(ctx context.Context, byKey ByKeyFn) map[string]interface{} {
	m := FlagsFromContext(ctx)
	if m == nil {
		return nil
	}

	filtered := make(map[string]interface{})
	for k, v := range m {
		if flag, found := byKey(k); found && flag.Expose() {
			filtered[k] = v
		}
	}

	return filtered
}

// Defaults returns the Default FlagSet: every registered flag at its default.
func Defaults() flagd.FlagSet {
	set := make(flagd.FlagSet, len(all))
	for _, f := range all {
		set[f.Key()] = f.Value()
	}
	return set
}

// Flags returns all registered flags.
func Flags() []Flag {
	out := make([]Flag, len(all))
	copy(out, all)
	return out
}

// ByKey returns the Flag corresponding to the given key.
func ByKey(k string) (Flag, bool) {
	v, found := byKey[k]
	return v, found
}

// ByKeyFold returns the Flag whose key matches k ignoring case.
func ByKeyFold(k string) (Flag, bool) {
	if f, ok := byKey[k]; ok {
		return f, true
	}
	for key, f := range byKey {
		if strings.EqualFold(key, k) {
			return f, true
		}
	}
	return nil, false
}

type defaultFlagger struct{}

// DefaultFlagger returns a flagger which returns default values.
func DefaultFlagger() Flagger {
	return &defaultFlagger{}
}

// Flags returns a map of default values. It never returns an error.
func (*defaultFlagger) Flags(_ context.Context, flags ...Flag) (map[string]interface{}, error) {
	if len(flags) == 0 {
		flags = Flags()
	}

	m := make(map[string]interface{}, len(flags))
	for _, flag := range flags {
		m[flag.Key()] = flag.Default()
	}

	return m, nil
}
