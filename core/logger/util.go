package logger

import (
	"strings"
	"time"
)

// Status maps an error to the closed status vocabulary: "fail" when err is
// set, "ok" otherwise.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Took reports how long ago start was, rounded for log output.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS clamps negative durations to zero and rounds to the millisecond.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values with a comma and reports
// whether anything was cut off.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	shown := values
	truncated := len(values) > limit
	if truncated {
		shown = values[:limit]
	}
	return strings.Join(shown, ", "), truncated
}
