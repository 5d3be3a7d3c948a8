// Package rollout assigns subjects to stable percentage buckets.
//
// The hash is the 31-multiplier string hash computed over UTF-16 code units
// with 32-bit signed wraparound at every step. Subjects already bucketed by
// other services using the same recurrence land in the same bucket here.
package rollout

import (
	"math"
	"unicode/utf16"
)

// Buckets is the number of slots subjects are spread over.
const Buckets = 100

// Hash returns the 32-bit hash of subjectID: for every UTF-16 code unit c,
// h = (h << 5) - h + c, wrapping as a signed 32-bit integer.
func Hash(subjectID string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(subjectID)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// Bucket returns the slot in [0, Buckets) subjectID falls into.
func Bucket(subjectID string) int {
	h := int64(Hash(subjectID))
	if h < 0 {
		h = -h
	}
	return int(h % Buckets)
}

// InRollout reports whether subjectID is inside a rollout of the given
// percentage. Percentages at or above 100 always include and at or below 0
// never include, without hashing.
func InRollout(subjectID string, percentage float64) bool {
	switch {
	case math.IsNaN(percentage):
		return false
	case percentage >= 100:
		return true
	case percentage <= 0:
		return false
	}
	return float64(Bucket(subjectID)) < percentage
}
