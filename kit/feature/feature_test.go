package feature_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldday/flagd/kit/feature"
)

func Test_feature(t *testing.T) {

	cases := []struct {
		name     string
		flag     feature.Flag
		err      error
		values   map[string]interface{}
		expected interface{}
	}{
		{
			name: "bool happy path",
			flag: newFlag("test", false),
			values: map[string]interface{}{
				"test": true,
			},
			expected: true,
		},
		{
			name: "percent happy path",
			flag: newFlag("test", 0),
			values: map[string]interface{}{
				"test": 42,
			},
			expected: 42,
		},
		{
			name: "percent from int32",
			flag: newFlag("test", 0),
			values: map[string]interface{}{
				"test": int32(17),
			},
			expected: 17,
		},
		{
			name: "percent from bool",
			flag: newFlag("test", 10),
			values: map[string]interface{}{
				"test": true,
			},
			expected: 100,
		},
		{
			name: "bool from percent",
			flag: newFlag("test", false),
			values: map[string]interface{}{
				"test": 1,
			},
			expected: true,
		},
		{
			name: "bool from zero percent",
			flag: newFlag("test", true),
			values: map[string]interface{}{
				"test": int32(0),
			},
			expected: false,
		},
		{
			name:     "bool missing use default",
			flag:     newFlag("test", false),
			expected: false,
		},
		{
			name:     "bool missing use default true",
			flag:     newFlag("test", true),
			expected: true,
		},
		{
			name:     "percent missing use default",
			flag:     newFlag("test", 65),
			expected: 65,
		},
		{
			name: "bool invalid use default",
			flag: newFlag("test", true),
			values: map[string]interface{}{
				"test": "notabool",
			},
			expected: true,
		},
		{
			name: "percent invalid use default",
			flag: newFlag("test", 42),
			values: map[string]interface{}{
				"test": 99.99,
			},
			expected: 42,
		},
		{
			name: "flagger error use default",
			flag: newFlag("test", true),
			err:  errors.New("source down"),
			values: map[string]interface{}{
				"test": false,
			},
			expected: true,
		},
	}

	for _, test := range cases {
		t.Run("flagger "+test.name, func(t *testing.T) {
			flagger := testFlagsFlagger{
				m:   test.values,
				err: test.err,
			}

			var actual interface{}
			switch flag := test.flag.(type) {
			case feature.BoolFlag:
				actual = flag.Enabled(context.Background(), flagger)
			case feature.PercentFlag:
				actual = flag.Percent(context.Background(), flagger)
			default:
				t.Errorf("unknown flag type %T (%#v)", flag, flag)
			}

			if actual != test.expected {
				t.Errorf("unexpected flag value: got %v, want %v", actual, test.expected)
			}
		})

		t.Run("annotate "+test.name, func(t *testing.T) {
			flagger := testFlagsFlagger{
				m:   test.values,
				err: test.err,
			}

			ctx, err := feature.Annotate(context.Background(), flagger, test.flag)
			if test.err != nil {
				if err == nil {
					t.Errorf("expected annotate error")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			var actual interface{}
			switch flag := test.flag.(type) {
			case feature.BoolFlag:
				actual = flag.Enabled(ctx)
			case feature.PercentFlag:
				actual = flag.Percent(ctx)
			default:
				t.Errorf("unknown flag type %T (%#v)", flag, flag)
			}

			if actual != test.expected {
				t.Errorf("unexpected flag value: got %v, want %v", actual, test.expected)
			}
		})
	}
}

func Test_ExposedFlagsFromContext(t *testing.T) {
	ctx, err := feature.Annotate(context.Background(), feature.DefaultFlagger(), feature.Flags()...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exposed := feature.ExposedFlagsFromContext(ctx, feature.ByKey)
	if _, ok := exposed[feature.NewCheckoutFlow().Key()]; ok {
		t.Errorf("unexposed flag %q returned", feature.NewCheckoutFlow().Key())
	}
	if _, ok := exposed[feature.VoiceSortingEnabled().Key()]; !ok {
		t.Errorf("exposed flag %q missing", feature.VoiceSortingEnabled().Key())
	}

	if feature.ExposedFlagsFromContext(context.Background(), feature.ByKey) != nil {
		t.Errorf("expected nil for unannotated context")
	}
}

func Test_Defaults(t *testing.T) {
	defaults := feature.Defaults()
	for _, f := range feature.Flags() {
		v, ok := defaults[f.Key()]
		if !ok {
			t.Errorf("flag %q missing from defaults", f.Key())
			continue
		}
		if v != f.Value() {
			t.Errorf("flag %q default: got %v, want %v", f.Key(), v, f.Value())
		}
	}
	if len(defaults) != len(feature.Flags()) {
		t.Errorf("defaults have %d keys, %d flags registered", len(defaults), len(feature.Flags()))
	}

	// callers get their own copy
	defaults["voiceSortingEnabled"] = defaults["aiCoachEnabled"]
	if feature.Defaults()["voiceSortingEnabled"].Bool() {
		t.Errorf("defaults were mutated through a returned set")
	}
}

func Test_ByKeyFold(t *testing.T) {
	f, ok := feature.ByKeyFold("VOICESORTINGENABLED")
	if !ok || f.Key() != "voiceSortingEnabled" {
		t.Errorf("expected case insensitive lookup, got %v %v", f, ok)
	}
	if _, ok := feature.ByKeyFold("nope"); ok {
		t.Errorf("unexpected flag for unknown key")
	}
}

type testFlagsFlagger struct {
	m   map[string]interface{}
	err error
}

func (f testFlagsFlagger) Flags(ctx context.Context, flags ...feature.Flag) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}

	m := make(map[string]interface{}, len(f.m))
	for k, v := range f.m {
		m[k] = v
	}
	return m, nil
}

func newFlag(key string, defaultValue interface{}) feature.Flag {
	return feature.MakeFlag(key, key, "", defaultValue, 0, false)
}
