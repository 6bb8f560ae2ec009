package validate

import "time"

// Default thresholds for the advisory checks.
const (
	DefaultStaleAfter            = 30 * 24 * time.Hour
	DefaultMinExternalConfidence = 0.7
)

// Options tunes the advisory checks of the validator.
type Options struct {
	StaleAfter            time.Duration
	MinExternalConfidence float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		StaleAfter:            DefaultStaleAfter,
		MinExternalConfidence: DefaultMinExternalConfidence,
	}
}

func (o Options) withDefaults() Options {
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.MinExternalConfidence <= 0 {
		o.MinExternalConfidence = DefaultMinExternalConfidence
	}
	return o
}

// IsStale reports whether data stamped at ts is older than maxAge at now.
// A zero timestamp is never stale.
func IsStale(ts, now time.Time, maxAge time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	return now.Sub(ts) > maxAge
}

// AgeDays returns the whole number of days between ts and now.
func AgeDays(ts, now time.Time) int {
	if ts.IsZero() || !now.After(ts) {
		return 0
	}
	return int(now.Sub(ts).Hours() / 24)
}
