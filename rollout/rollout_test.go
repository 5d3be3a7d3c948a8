package rollout_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/fieldday/flagd/rollout"
	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	tests := []struct {
		subject string
		hash    int32
		bucket  int
	}{
		{subject: "", hash: 0, bucket: 0},
		{subject: "a", hash: 97, bucket: 97},
		{subject: "ab", hash: 3105, bucket: 5},
		{subject: "abc", hash: 96354, bucket: 54},
		{subject: "user-42", hash: -147182656, bucket: 56},
		{subject: "hello world", hash: 1794106052, bucket: 52},
		{subject: "session-abc123", hash: -33897049, bucket: 49},
		// wraps to exactly MinInt32; abs must not overflow
		{subject: "polygenelubricants", hash: math.MinInt32, bucket: 48},
		{subject: "héllo", hash: 103094734, bucket: 34},
		// astral plane rune hashes as a surrogate pair
		{subject: "🏃", hash: 1773319, bucket: 19},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.subject), func(t *testing.T) {
			assert.Equal(t, tt.hash, rollout.Hash(tt.subject))
			assert.Equal(t, tt.bucket, rollout.Bucket(tt.subject))
		})
	}
}

func TestInRollout_Boundaries(t *testing.T) {
	subjects := []string{"", "user-42", "polygenelubricants", "a", "🏃"}
	for _, s := range subjects {
		for _, p := range []float64{100, 100.5, 250, math.Inf(1)} {
			assert.True(t, rollout.InRollout(s, p), "subject %q at %v", s, p)
		}
		for _, p := range []float64{0, -1, -100, math.Inf(-1), math.NaN()} {
			assert.False(t, rollout.InRollout(s, p), "subject %q at %v", s, p)
		}
	}
}

func TestInRollout_UserExample(t *testing.T) {
	assert.True(t, rollout.InRollout("user-42", 100))
	assert.False(t, rollout.InRollout("user-42", 0))

	// bucket("user-42") is 56
	want := rollout.Bucket("user-42") < 50
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, rollout.InRollout("user-42", 50))
	}
	assert.False(t, rollout.InRollout("user-42", 56))
	assert.True(t, rollout.InRollout("user-42", 57))
	assert.True(t, rollout.InRollout("user-42", 56.5))
}

func TestInRollout_EmptySubject(t *testing.T) {
	assert.Equal(t, 0, rollout.Bucket(""))
	assert.True(t, rollout.InRollout("", 1))
	assert.True(t, rollout.InRollout("", 0.01))
}

func TestInRollout_Monotonic(t *testing.T) {
	for i := 0; i < 500; i++ {
		s := fmt.Sprintf("user-%d", i)
		in := false
		for p := 0; p <= 100; p++ {
			got := rollout.InRollout(s, float64(p))
			if in {
				assert.True(t, got, "subject %q dropped out at %d%%", s, p)
			}
			in = got
		}
		assert.True(t, in)
	}
}

func TestInRollout_Distribution(t *testing.T) {
	const n = 10000
	included := 0
	for i := 0; i < n; i++ {
		if rollout.InRollout(fmt.Sprintf("subject-%d", i), 30) {
			included++
		}
	}
	// sequential ids spread evenly over buckets
	assert.InDelta(t, 0.30, float64(included)/n, 0.05)
}
