package feature

import (
	"context"
	"fmt"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/feature/lifetime"
)

// Flag represents a generic feature flag with a key and a default.
type Flag interface {
	// Key returns the programmatic backend identifier for the flag.
	Key() string
	// Default returns the type-agnostic zero value for the flag.
	// Type-specific flag implementations may expose a typed default
	// (e.g. BoolFlag includes a boolean Default field).
	Default() interface{}
	// Value returns the default as a flag value for building default sets.
	Value() flagd.Value
	// Expose the flag.
	Expose() bool
}

// MakeFlag constructs a Flag. The concrete implementation is inferred from the provided default.
func MakeFlag(name, key, owner string, defaultValue interface{}, lifetime lifetime.Lifetime, expose bool) Flag {
	switch v := defaultValue.(type) {
	case bool:
		return MakeBoolFlag(name, key, owner, v, lifetime, expose)
	case int:
		return MakePercentFlag(name, key, owner, v, lifetime, expose)
	case int32:
		return MakePercentFlag(name, key, owner, int(v), lifetime, expose)
	default:
		panic(fmt.Sprintf("feature: unsupported default %T for flag %q", defaultValue, key))
	}
}

// Base is the shared part of every flag.
type Base struct {
	// name of the flag.
	name string
	// key is the programmatic backend identifier for the flag.
	key string
	// defaultValue for the flag.
	defaultValue flagd.Value
	// owner is an individual or team responsible for the flag.
	owner string
	// lifetime of the feature flag.
	lifetime lifetime.Lifetime
	// expose the flag.
	expose bool
}

var _ Flag = Base{}

// MakeBase constructs a flag base.
func MakeBase(name, key, owner string, defaultValue flagd.Value, lifetime lifetime.Lifetime, expose bool) Base {
	return Base{
		name:         name,
		key:          key,
		owner:        owner,
		defaultValue: defaultValue,
		lifetime:     lifetime,
		expose:       expose,
	}
}

// Key returns the programmatic backend identifier for the flag.
func (f Base) Key() string {
	return f.key
}

// Name returns the human readable name of the flag.
func (f Base) Name() string {
	return f.name
}

// Owner returns the individual or team responsible for the flag.
func (f Base) Owner() string {
	return f.owner
}

// Lifetime returns the intended lifetime of the flag.
func (f Base) Lifetime() lifetime.Lifetime {
	return f.lifetime
}

// Default returns the type-agnostic zero value for the flag.
func (f Base) Default() interface{} {
	return f.defaultValue.Interface()
}

// Value returns the default as a flag value.
func (f Base) Value() flagd.Value {
	return f.defaultValue
}

// Expose the flag.
func (f Base) Expose() bool {
	return f.expose
}

func (f Base) value(ctx context.Context, flagger ...Flagger) (interface{}, bool) {
	var (
		m  map[string]interface{}
		ok bool
	)
	if len(flagger) < 1 {
		if ctx == nil {
			return nil, false
		}
		m, ok = ctx.Value(featureContextKey).(map[string]interface{})
	} else {
		var err error
		m, err = flagger[0].Flags(ctx, f)
		ok = err == nil
	}
	if !ok {
		return nil, false
	}

	v, ok := m[f.Key()]
	if !ok {
		return nil, false
	}

	return v, true
}

// BoolFlag implements Flag for boolean values. It is the kill switch half of a gate.
type BoolFlag struct {
	Base
	defaultBool bool
}

var _ Flag = BoolFlag{}

// MakeBoolFlag returns a bool flag with the given base and default.
func MakeBoolFlag(name, key, owner string, defaultValue bool, lifetime lifetime.Lifetime, expose bool) BoolFlag {
	b := MakeBase(name, key, owner, flagd.BoolValue(defaultValue), lifetime, expose)
	return BoolFlag{b, defaultValue}
}

// Enabled indicates whether flag is true or false on the request context.
// A percentage stored under a switch key reads as true when above zero.
func (f BoolFlag) Enabled(ctx context.Context, flagger ...Flagger) bool {
	i, ok := f.value(ctx, flagger...)
	if !ok {
		return f.defaultBool
	}
	switch v := i.(type) {
	case bool:
		return v
	case int:
		return v > 0
	case int32:
		return v > 0
	default:
		return f.defaultBool
	}
}

// PercentFlag implements Flag for rollout percentages.
type PercentFlag struct {
	Base
	defaultPercent int
}

var _ Flag = PercentFlag{}

// MakePercentFlag returns a percentage flag with the given base and default.
func MakePercentFlag(name, key, owner string, defaultValue int, lifetime lifetime.Lifetime, expose bool) PercentFlag {
	b := MakeBase(name, key, owner, flagd.PercentValue(defaultValue), lifetime, expose)
	return PercentFlag{b, defaultValue}
}

// Percent returns the rollout percentage on the request context. A boolean
// stored under a percentage key reads as 100 or 0.
func (f PercentFlag) Percent(ctx context.Context, flagger ...Flagger) int {
	i, ok := f.value(ctx, flagger...)
	if !ok {
		return f.defaultPercent
	}
	switch v := i.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case bool:
		return flagd.BoolValue(v).Percent()
	default:
		return f.defaultPercent
	}
}
