package override

import (
	"testing"

	"github.com/fieldday/flagd/kit/feature"
	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		wantErr   bool
		want      map[string]interface{}
	}{
		{
			name:      "switch and percentage",
			overrides: map[string]string{"voiceSortingEnabled": "true", "voiceSortingRolloutPercentage": " 25 "},
			want: map[string]interface{}{
				"voiceSortingEnabled":           true,
				"voiceSortingRolloutPercentage": 25,
			},
		},
		{
			name:      "unknown key",
			overrides: map[string]string{"nope": "true"},
			wantErr:   true,
		},
		{
			name:      "bad bool",
			overrides: map[string]string{"aiCoachEnabled": "sometimes"},
			wantErr:   true,
		},
		{
			name:      "bad percentage",
			overrides: map[string]string{"newCheckoutFlow": "half"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.overrides, feature.ByKey)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Map())
		})
	}
}

func TestParse_CanonicalKeys(t *testing.T) {
	got, err := Parse(map[string]string{"DRILLLIBRARYV2": "true"}, feature.ByKeyFold)
	require.NoError(t, err)

	on, ok := got.Bool("drillLibraryV2")
	require.True(t, ok)
	assert.True(t, on)
}

func TestParsePairs(t *testing.T) {
	got, err := ParsePairs([]string{"voiceSortingEnabled=true", "voiceSortingRolloutPercentage=40"}, feature.ByKey)
	require.NoError(t, err)

	b, ok := got.Bool("voiceSortingEnabled")
	require.True(t, ok)
	assert.True(t, b)
	p, ok := got.Percent("voiceSortingRolloutPercentage")
	require.True(t, ok)
	assert.Equal(t, 40, p)

	for _, bad := range [][]string{{"voiceSortingEnabled"}, {"=true"}, {"nope=true"}} {
		_, err := ParsePairs(bad, feature.ByKey)
		require.Error(t, err, bad)
		assert.Equal(t, errors.EInvalid, errors.ErrorCode(err), bad)
	}
}
