package registry

import (
	"unicode/utf8"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Field limits. Lengths are counted in code points.
const (
	MaxTitleLen          = 50
	FingerprintLen       = 64
	MaxSummaryLen        = 200
	MaxClassificationLen = 20
	MaxLabels            = 5
	MaxLabelLen          = 30
	// MaxDuration is one year of heights at a ten minute interval.
	MaxDuration = 52560
)

// lengthBetween counts code points, not bytes.
func lengthBetween(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// ValidTitle accepts a title of 1..MaxTitleLen code points.
func ValidTitle(t string) bool {
	return lengthBetween(t, 1, MaxTitleLen)
}

// ValidFingerprint accepts exactly FingerprintLen characters and nothing else.
func ValidFingerprint(f string) bool {
	return utf8.RuneCountInString(f) == FingerprintLen
}

// ValidSummary accepts a summary of 1..MaxSummaryLen code points.
func ValidSummary(s string) bool {
	return lengthBetween(s, 1, MaxSummaryLen)
}

// ValidClassification accepts a classification of 1..MaxClassificationLen code points.
func ValidClassification(c string) bool {
	return lengthBetween(c, 1, MaxClassificationLen)
}

// ValidLabels requires 1..MaxLabels items, each 1..MaxLabelLen long.
func ValidLabels(labels []string) bool {
	if len(labels) < 1 || len(labels) > MaxLabels {
		return false
	}
	for _, l := range labels {
		if !lengthBetween(l, 1, MaxLabelLen) {
			return false
		}
	}
	return true
}

// ValidTier accepts exactly one of the three recognized tiers. Matching is case sensitive.
func ValidTier(t models.Tier) bool {
	switch t {
	case models.TierObserver, models.TierContributor, models.TierAdministrator:
		return true
	default:
		return false
	}
}

// ValidDuration accepts a grant lifetime of 1..MaxDuration heights.
func ValidDuration(d uint64) bool {
	return d > 0 && d <= MaxDuration
}

// CrossCheck repeats the title and summary checks and rejects empty strings.
// It runs as its own step after the individual field checks.
func CrossCheck(title, summary string) bool {
	return ValidTitle(title) && ValidSummary(summary) && title != "" && summary != ""
}

// TargetNotSelf reports whether a delegation target is a real principal other than the caller.
func TargetNotSelf(caller, target models.Principal) bool {
	return target != "" && target != caller
}

// ValidCanModify always holds; it marks the check point for the modification flag.
func ValidCanModify(bool) bool {
	return true
}
