package note

import (
	"fmt"
	"time"
)

// NominalRecallWindow is the progress window assumed when the current
// recall cohort has no reference item to measure against.
const NominalRecallWindow = 24 * time.Hour

// Countdown renders the time left until recallableAt as "HHh:MMm:SSs".
// Elapsed deadlines render as the zero value, never negative.
func Countdown(recallableAt, now time.Time) string {
	remaining := recallableAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	remaining = remaining.Round(time.Second)
	h := int(remaining / time.Hour)
	m := int(remaining % time.Hour / time.Minute)
	s := int(remaining % time.Minute / time.Second)
	return fmt.Sprintf("%02dh:%02dm:%02ds", h, m, s)
}

// ZeroCountdown is what the countdown displays when no deadline is known,
// for example while the bookkeeping server is unreachable.
func ZeroCountdown() string {
	return Countdown(time.Time{}, time.Time{})
}

// Progress returns how far the recall window has advanced, in percent,
// clamped to [0,100]. A non-positive window (clock skew, malformed data)
// reports zero progress rather than dividing by it.
func Progress(createdAt, recallableAt, now time.Time) float64 {
	window := recallableAt.Sub(createdAt)
	if window <= 0 {
		return 0
	}
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return 0
	}
	ratio := float64(elapsed) / float64(window) * 100
	if ratio > 100 {
		return 100
	}
	return ratio
}

// ProgressWithFallback measures progress against the earliest cohort item
// when one exists, and against the nominal 24h window otherwise.
func ProgressWithFallback(cohortCreatedAt, recallableAt, now time.Time, haveCohort bool) float64 {
	if !haveCohort {
		cohortCreatedAt = recallableAt.Add(-NominalRecallWindow)
	}
	return Progress(cohortCreatedAt, recallableAt, now)
}
