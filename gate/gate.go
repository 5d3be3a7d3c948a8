// Package gate composes a kill switch flag with a rollout percentage flag into
// a per-subject decision.
package gate

import (
	"context"
	"sort"

	"github.com/fieldday/flagd/kit/feature"
	"github.com/fieldday/flagd/rollout"
)

// Reasons a Decision was reached.
const (
	ReasonKillSwitch  = "kill-switch"
	ReasonFullRollout = "full-rollout"
	ReasonNoRollout   = "no-rollout"
	ReasonBucketed    = "bucketed"
	ReasonAnonymous   = "anonymous"
)

// Gate is a kill switch plus a graduated rollout. Turning the switch off
// disables the feature for everyone regardless of the percentage.
type Gate struct {
	Name    string
	Switch  feature.BoolFlag
	Rollout feature.PercentFlag
}

// Decision is the outcome of evaluating a Gate for one subject.
type Decision struct {
	Gate    string `json:"gate"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
	Percent int    `json:"percentage"`
	// Bucket is the subject's slot; nil when no bucketing took place.
	Bucket *int `json:"bucket,omitempty"`
}

// Enabled reports whether the gate is open for subjectID. The empty string is
// a valid subject id.
func (g Gate) Enabled(ctx context.Context, flagger feature.Flagger, subjectID string) bool {
	return g.decide(ctx, flagger, &subjectID).Enabled
}

// EnabledAnonymous reports whether the gate is open when no subject is known.
// Without an identity only a full rollout opens the gate.
func (g Gate) EnabledAnonymous(ctx context.Context, flagger feature.Flagger) bool {
	return g.decide(ctx, flagger, nil).Enabled
}

// Decide evaluates the gate and explains the outcome. A nil subjectID means no
// subject is known.
func (g Gate) Decide(ctx context.Context, flagger feature.Flagger, subjectID *string) Decision {
	return g.decide(ctx, flagger, subjectID)
}

func (g Gate) decide(ctx context.Context, flagger feature.Flagger, subjectID *string) Decision {
	d := Decision{Gate: g.Name}

	if flagger != nil {
		ctx = g.annotate(ctx, flagger)
	}
	if !g.Switch.Enabled(ctx) {
		d.Reason = ReasonKillSwitch
		return d
	}

	d.Percent = g.Rollout.Percent(ctx)
	if subjectID == nil {
		d.Enabled = d.Percent >= 100
		d.Reason = ReasonAnonymous
		return d
	}

	switch {
	case d.Percent >= 100:
		d.Enabled, d.Reason = true, ReasonFullRollout
	case d.Percent <= 0:
		d.Reason = ReasonNoRollout
	default:
		b := rollout.Bucket(*subjectID)
		d.Bucket = &b
		d.Enabled = rollout.InRollout(*subjectID, float64(d.Percent))
		d.Reason = ReasonBucketed
	}
	return d
}

// annotate resolves the switch and the rollout with a single Flags call so
// both are read from the same snapshot. A failing flagger yields defaults.
func (g Gate) annotate(ctx context.Context, flagger feature.Flagger) context.Context {
	annotated, err := feature.Annotate(ctx, flagger, g.Switch, g.Rollout)
	if err != nil {
		annotated, _ = feature.Annotate(ctx, feature.DefaultFlagger(), g.Switch, g.Rollout)
	}
	return annotated
}

// VoiceSorting gates sorting drills by voice command.
var VoiceSorting = Gate{
	Name:    "voice-sorting",
	Switch:  feature.VoiceSortingEnabled(),
	Rollout: feature.VoiceSortingRolloutPercentage(),
}

// IsVoiceSortingEnabled reports whether voice sorting is on for the subject.
// With no subject id only a full rollout enables it.
func IsVoiceSortingEnabled(ctx context.Context, flagger feature.Flagger, subjectID ...string) bool {
	if len(subjectID) == 0 {
		return VoiceSorting.EnabledAnonymous(ctx, flagger)
	}
	return VoiceSorting.Enabled(ctx, flagger, subjectID[0])
}

var gates = map[string]Gate{
	VoiceSorting.Name: VoiceSorting,
}

// ByName returns the registered gate called name.
func ByName(name string) (Gate, bool) {
	g, ok := gates[name]
	return g, ok
}

// Names returns the registered gate names, sorted.
func Names() []string {
	names := make([]string, 0, len(gates))
	for n := range gates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
