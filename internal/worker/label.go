package worker

import (
	"fmt"
	"time"
)

// bareLayout matches timestamps sent without a zone; they are UTC.
const bareLayout = "2006-01-02T15:04:05"

// ParseResetTime parses an ISO 8601 reset timestamp. Fractional seconds
// and a zone offset are accepted but not required.
func ParseResetTime(ts string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, true
	}
	if len(ts) >= len(bareLayout) {
		if t, err := time.ParseInLocation(bareLayout, ts[:len(bareLayout)], time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatResetLabel renders the time until ts as "Resets in 2d 3h",
// "Resets in 1h 30m" or "Resets in 5m", using the two coarsest units.
func FormatResetLabel(ts string, now time.Time) string {
	if ts == "" {
		return ""
	}
	reset, ok := ParseResetTime(ts)
	if !ok {
		return "Unknown"
	}

	diff := reset.Unix() - now.Unix()
	if diff <= 0 {
		return "Now"
	}

	days := diff / 86400
	hours := (diff % 86400) / 3600
	minutes := (diff % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("Resets in %dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("Resets in %dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("Resets in %dm", minutes)
	}
}
