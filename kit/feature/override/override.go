// Package override parses operator supplied flag values.
package override

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/feature"
	"github.com/fieldday/flagd/kit/platform/errors"
)

// Parse validates overrides against the registered flags. Keys must name a
// known flag and values must parse for that flag's type: "true"/"false" for
// switches, an integer for percentages.
func Parse(overrides map[string]string, byKey feature.ByKeyFn) (flagd.FlagSet, error) {
	parsed := make(flagd.FlagSet, len(overrides))
	for k, raw := range overrides {
		flag, found := byKey(k)
		if !found {
			return nil, &errors.Error{
				Code: errors.EInvalid,
				Op:   "override.Parse",
				Msg:  fmt.Sprintf("configured feature flag %q not found", k),
			}
		}

		v, err := coerce(flag, raw)
		if err != nil {
			return nil, &errors.Error{
				Code: errors.EInvalid,
				Op:   "override.Parse",
				Msg:  fmt.Sprintf("invalid value for feature flag %q", k),
				Err:  err,
			}
		}
		parsed[flag.Key()] = v
	}
	return parsed, nil
}

// ParsePairs splits "key=value" pairs and parses them like Parse.
func ParsePairs(pairs []string, byKey feature.ByKeyFn) (flagd.FlagSet, error) {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, &errors.Error{
				Code: errors.EInvalid,
				Op:   "override.ParsePairs",
				Msg:  fmt.Sprintf("feature flag override %q must be key=value", p),
			}
		}
		m[strings.TrimSpace(k)] = v
	}
	return Parse(m, byKey)
}

func coerce(flag feature.Flag, raw string) (flagd.Value, error) {
	raw = strings.TrimSpace(raw)
	switch flag.Value().Kind() {
	case flagd.KindPercent:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return flagd.Value{}, err
		}
		return flagd.PercentValue(n), nil
	default:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return flagd.Value{}, err
		}
		return flagd.BoolValue(b), nil
	}
}
