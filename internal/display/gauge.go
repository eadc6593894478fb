package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/tnunamak/usagegauge/internal/forecast"
)

type Level int

const (
	LevelNone Level = iota
	LevelOK
	LevelWarning
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "none"
	}
}

// Gauge is one usage window as the host should draw it.
type Gauge struct {
	Label      string
	Pct        float64
	HasData    bool
	Reset      string
	Projection forecast.Projection
}

// ValueText is "42%", or "--" before the first successful poll.
func (g Gauge) ValueText() string {
	if !g.HasData {
		return "--"
	}
	return fmt.Sprintf("%.0f%%", g.Pct)
}

// Bar renders the gauge as a block bar width cells wide.
func (g Gauge) Bar(width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if g.HasData {
		filled = int(math.Round(g.Pct / 100 * float64(width)))
		if filled < 1 && g.Pct > 0 {
			filled = 1
		}
		filled = min(max(filled, 0), width)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (g Gauge) Level() Level {
	return levelFor(g.Pct, g.HasData)
}

func levelFor(pct float64, hasData bool) Level {
	switch {
	case !hasData:
		return LevelNone
	case pct >= 80:
		return LevelCritical
	case pct >= 60:
		return LevelWarning
	default:
		return LevelOK
	}
}

// line is "5h: 42% (Resets in 1h 30m, on track)".
func (g Gauge) line() string {
	var extra []string
	if g.Reset != "" {
		extra = append(extra, g.Reset)
	}
	if ind := g.Projection.Indicator(); ind != "" {
		extra = append(extra, ind)
	}
	if len(extra) == 0 {
		return fmt.Sprintf("%s: %s", g.Label, g.ValueText())
	}
	return fmt.Sprintf("%s: %s (%s)", g.Label, g.ValueText(), strings.Join(extra, ", "))
}
