package flagd

import (
	"encoding/json"
	"sort"

	"github.com/fieldday/flagd/kit/platform/errors"
)

// FlagSet maps flag names to their values. Methods on FlagSet never mutate
// the receiver; a resolved set is treated as an immutable snapshot.
type FlagSet map[string]Value

// Clone returns a copy of fs.
func (fs FlagSet) Clone() FlagSet {
	out := make(FlagSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Merge returns a new set holding every key of fs, overlaid with the keys of
// overlay. Overlay values win per key.
func (fs FlagSet) Merge(overlay FlagSet) FlagSet {
	out := make(FlagSet, len(fs)+len(overlay))
	for k, v := range fs {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Bool reads key as a boolean.
func (fs FlagSet) Bool(key string) (bool, bool) {
	v, ok := fs[key]
	if !ok {
		return false, false
	}
	return v.Bool(), true
}

// Percent reads key as a rollout percentage.
func (fs FlagSet) Percent(key string) (int, bool) {
	v, ok := fs[key]
	if !ok {
		return 0, false
	}
	return v.Percent(), true
}

// Keys returns the flag names in sorted order.
func (fs FlagSet) Keys() []string {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns fs as the untyped map flaggers hand to typed flags.
func (fs FlagSet) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(fs))
	for k, v := range fs {
		m[k] = v.Interface()
	}
	return m
}

// UnmarshalJSON strictly decodes a JSON object of flag values.
func (fs *FlagSet) UnmarshalJSON(b []byte) error {
	set, invalid, err := DecodeFlagSet(b)
	if err != nil {
		return err
	}
	if len(invalid) > 0 {
		return &errors.Error{
			Code: errors.EInvalid,
			Op:   "flagd.FlagSet",
			Msg:  "malformed value for flag " + invalid[0],
		}
	}
	*fs = set
	return nil
}

// DecodeFlagSet decodes a JSON object of flag values leniently. Entries whose
// value is not a boolean or number are left out of the set and reported by
// name in invalid. A JSON null decodes to an empty set. Anything other than an
// object or null is an error.
func DecodeFlagSet(b []byte) (set FlagSet, invalid []string, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, nil, &errors.Error{
			Code: errors.EInvalid,
			Op:   "flagd.DecodeFlagSet",
			Msg:  "flag configuration is not a JSON object",
			Err:  err,
		}
	}

	set = make(FlagSet, len(raw))
	for k, msg := range raw {
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			invalid = append(invalid, k)
			continue
		}
		set[k] = v
	}
	sort.Strings(invalid)
	return set, invalid, nil
}
