package catalog

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultNewestLimit is used when the requested limit is missing or invalid.
	DefaultNewestLimit = 10
	// MaxNewestLimit caps the number of products returned by Newest.
	MaxNewestLimit = 50
	// RecommendedSize is the number of products sampled by Recommended.
	RecommendedSize = 4
)

// ParseLimit converts a raw query value into a newest-products limit.
// Missing, non-numeric and non-positive values fall back to
// DefaultNewestLimit; values above MaxNewestLimit are capped.
func ParseLimit(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultNewestLimit
	}
	return ClampLimit(v)
}

// ClampLimit applies the newest-products limit policy to v. Non-finite
// values are treated as invalid.
func ClampLimit(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return DefaultNewestLimit
	}
	if v >= MaxNewestLimit {
		return MaxNewestLimit
	}
	n := int(v)
	if n < 1 {
		// Fractions in (0,1) still ask for something.
		n = 1
	}
	return n
}
