package rcm

import (
	"math"
	"time"
)

// Accounts-receivable aging buckets. Boundaries are inclusive on the lower
// bucket: a claim exactly 30 days old is still "0-30".
const (
	Bucket0To30  = "0-30"
	Bucket31To60 = "31-60"
	Bucket61To90 = "61-90"
	Bucket90Plus = "90+"
)

// DaysInAR returns the whole days a receivable has been outstanding as of
// now. Future or zero reference dates count as 0.
func DaysInAR(ref, now time.Time) int {
	if ref.IsZero() {
		return 0
	}
	days := int(now.Sub(ref).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// AgingBucket classifies a day count into an AR aging bucket. Negative input
// falls into the youngest bucket.
func AgingBucket(days int) string {
	switch {
	case days <= 30:
		return Bucket0To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return Bucket90Plus
	}
}

// AgingBucketFloat is AgingBucket for day counts that may be NaN or
// non-finite. An unboundedly old receivable lands in the oldest bucket;
// NaN and negative infinity classify as the youngest.
func AgingBucketFloat(days float64) string {
	if math.IsInf(days, 1) {
		return Bucket90Plus
	}
	if math.IsNaN(days) || math.IsInf(days, -1) {
		return Bucket0To30
	}
	return AgingBucket(int(days))
}

// CollectabilityScore estimates how likely an aged receivable is to still be
// collected. Scores decrease monotonically with age.
func CollectabilityScore(days int) int {
	switch {
	case days <= 30:
		return 95
	case days <= 60:
		return 85
	case days <= 90:
		return 70
	case days <= 120:
		return 50
	default:
		return 25
	}
}
