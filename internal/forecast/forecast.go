// Package forecast projects where a usage window will end up at reset,
// assuming the rate so far continues.
package forecast

import "time"

const (
	FiveHourWindow = 5 * time.Hour
	SevenDayWindow = 7 * 24 * time.Hour
)

type Projection struct {
	// ProjectedPct is the estimated utilization at reset (0-100+).
	ProjectedPct float64
	// Known is false when there was not enough information to project.
	Known bool
}

// Project estimates utilization at resetsAt for a window of length
// windowLen that currently stands at currentPct.
func Project(currentPct float64, resetsAt time.Time, windowLen time.Duration, now time.Time) Projection {
	if resetsAt.IsZero() {
		return Projection{ProjectedPct: currentPct}
	}

	remaining := resetsAt.Sub(now)
	if remaining > windowLen {
		remaining = windowLen
	}
	elapsed := windowLen - remaining

	if elapsed <= 0 || currentPct <= 0 {
		return Projection{ProjectedPct: currentPct, Known: true}
	}

	rate := currentPct / elapsed.Seconds()
	return Projection{
		ProjectedPct: rate * windowLen.Seconds(),
		Known:        true,
	}
}

func (p Projection) OnTrack() bool {
	return p.ProjectedPct < 100
}

// Indicator returns a short status string for the projection.
func (p Projection) Indicator() string {
	switch {
	case !p.Known:
		return ""
	case p.ProjectedPct >= 100:
		return "over limit"
	case p.ProjectedPct >= 90:
		return "tight"
	default:
		return "on track"
	}
}

// ColorIndicator is Indicator with ANSI colors.
func (p Projection) ColorIndicator() string {
	switch {
	case !p.Known:
		return ""
	case p.ProjectedPct >= 100:
		return "\033[31m⚠ over limit\033[0m"
	case p.ProjectedPct >= 90:
		return "\033[33m~ tight\033[0m"
	default:
		return "\033[32m✓ on track\033[0m"
	}
}
