package flagd_test

import (
	"encoding/json"
	"testing"

	"github.com/fieldday/flagd"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSet_Merge(t *testing.T) {
	defaults := flagd.FlagSet{
		"flagX": flagd.BoolValue(false),
		"flagY": flagd.BoolValue(true),
	}
	remote := flagd.FlagSet{
		"flagX": flagd.BoolValue(true),
	}

	got := defaults.Merge(remote)
	want := flagd.FlagSet{
		"flagX": flagd.BoolValue(true),
		"flagY": flagd.BoolValue(true),
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(flagd.Value{})); diff != "" {
		t.Fatalf("unexpected merge -want/+got:\n%s", diff)
	}

	// neither input is touched
	assert.False(t, defaults["flagX"].Bool())
	assert.Len(t, remote, 1)
}

func TestFlagSet_MergeKeepsRemoteOnlyKeys(t *testing.T) {
	got := flagd.FlagSet{"a": flagd.BoolValue(true)}.Merge(flagd.FlagSet{"b": flagd.PercentValue(30)})
	assert.Equal(t, []string{"a", "b"}, got.Keys())
}

func TestFlagSet_TypedReads(t *testing.T) {
	fs := flagd.FlagSet{
		"on":   flagd.BoolValue(true),
		"off":  flagd.BoolValue(false),
		"half": flagd.PercentValue(50),
		"none": flagd.PercentValue(0),
	}

	tests := []struct {
		key     string
		wantB   bool
		wantPct int
	}{
		{key: "on", wantB: true, wantPct: 100},
		{key: "off", wantB: false, wantPct: 0},
		{key: "half", wantB: true, wantPct: 50},
		{key: "none", wantB: false, wantPct: 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			b, ok := fs.Bool(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.wantB, b)

			p, ok := fs.Percent(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.wantPct, p)
		})
	}

	_, ok := fs.Bool("missing")
	assert.False(t, ok)
}

func TestDecodeFlagSet(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantKeys    []string
		wantInvalid []string
		wantErr     bool
	}{
		{
			name:     "bools and numbers",
			in:       `{"a": true, "b": 25, "c": 12.9}`,
			wantKeys: []string{"a", "b", "c"},
		},
		{
			name:        "malformed entries are reported",
			in:          `{"a": true, "b": "yes", "c": null, "d": [1]}`,
			wantKeys:    []string{"a"},
			wantInvalid: []string{"b", "c", "d"},
		},
		{
			name:     "null document",
			in:       `null`,
			wantKeys: []string{},
		},
		{
			name:    "not an object",
			in:      `[true]`,
			wantErr: true,
		},
		{
			name:    "garbage",
			in:      `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, invalid, err := flagd.DecodeFlagSet([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, set.Keys())
			assert.Equal(t, tt.wantInvalid, invalid)
		})
	}
}

func TestValue_JSON(t *testing.T) {
	var fs flagd.FlagSet
	require.NoError(t, json.Unmarshal([]byte(`{"a": false, "b": 75.5}`), &fs))
	assert.Equal(t, flagd.KindBool, fs["a"].Kind())
	assert.Equal(t, flagd.KindPercent, fs["b"].Kind())
	assert.Equal(t, 75, fs["b"].Percent())

	b, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": false, "b": 75}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"a": "on"}`), &fs))
}
