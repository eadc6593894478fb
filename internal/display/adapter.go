// Package display turns poller snapshots into what a host shows: two
// gauges, a tooltip and occasional notices. Hosts call Tick on their own
// timer and Click when the user asks for fresh data.
package display

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tnunamak/usagegauge/internal/credentials"
	"github.com/tnunamak/usagegauge/internal/forecast"
	"github.com/tnunamak/usagegauge/internal/worker"
)

const title = "Claude Usage"

// Source is the poller as seen by a host.
type Source interface {
	Snapshot() worker.Snapshot
	RequestRefresh()
}

type NoticeKind int

const (
	NoticeCredentialsMissing NoticeKind = iota + 1
	NoticeFailure
	NoticeWarning
	NoticeCritical
)

type Notice struct {
	Kind  NoticeKind
	Title string
	Body  string
}

// Urgency maps the notice onto notify-send's urgency levels.
func (n Notice) Urgency() string {
	switch n.Kind {
	case NoticeCritical, NoticeCredentialsMissing:
		return "critical"
	default:
		return "normal"
	}
}

type View struct {
	FiveHour Gauge
	SevenDay Gauge
	Tooltip  string
	// Stale is set when the gauges show data from before the latest failure.
	Stale bool
	// Updated is "just now", "3m ago" or "never".
	Updated string
	Error   string
	Notices []Notice
}

// Level is the worse of the two gauges.
func (v View) Level() Level {
	return max(v.FiveHour.Level(), v.SevenDay.Level())
}

type failure int

const (
	failureNone failure = iota
	failureCredentials
	failureOther
)

type Adapter struct {
	src Source
	now func() time.Time

	mu       sync.Mutex
	failure  failure
	lastPeak float64
}

type Option func(*Adapter)

func WithClock(now func() time.Time) Option { return func(a *Adapter) { a.now = now } }

func New(src Source, opts ...Option) *Adapter {
	a := &Adapter{src: src, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Click requests an immediate refresh.
func (a *Adapter) Click() {
	a.src.RequestRefresh()
}

// Tick reads the latest snapshot and renders it.
func (a *Adapter) Tick() View {
	snap := a.src.Snapshot()
	now := a.now()

	v := View{
		FiveHour: gauge("5h", snap.FiveHourPct, snap.FiveHourReset, snap.FiveHourResetsAt, forecast.FiveHourWindow, snap.HasData(), now),
		SevenDay: gauge("7d", snap.SevenDayPct, snap.SevenDayReset, snap.SevenDayResetsAt, forecast.SevenDayWindow, snap.HasData(), now),
		Stale:    snap.HasData() && snap.HasError,
		Updated:  "never",
	}
	if snap.HasData() {
		v.Updated = FormatAgo(now.Sub(snap.LastSuccess))
	}
	if snap.HasError {
		v.Error = snap.ErrorMessage
	}

	a.mu.Lock()
	v.Notices = append(a.failureNotices(snap), a.thresholdNotices(snap)...)
	a.mu.Unlock()

	v.Tooltip = tooltip(v, snap)
	return v
}

func gauge(label string, pct float64, reset string, resetsAt time.Time, window time.Duration, hasData bool, now time.Time) Gauge {
	g := Gauge{Label: label, Pct: pct, HasData: hasData, Reset: reset}
	if hasData {
		g.Projection = forecast.Project(pct, resetsAt, window, now)
	}
	return g
}

// failureNotices reports a failure once per distinct condition. A
// successful poll re-arms it.
func (a *Adapter) failureNotices(snap worker.Snapshot) []Notice {
	if !snap.HasError {
		a.failure = failureNone
		return nil
	}

	kind := failureOther
	if errors.Is(snap.Err, credentials.ErrNotFound) {
		kind = failureCredentials
	}
	if kind == a.failure {
		return nil
	}
	a.failure = kind

	if kind == failureCredentials {
		return []Notice{{
			Kind:  NoticeCredentialsMissing,
			Title: "Claude credentials not found",
			Body:  "Sign in with Claude Code (run `claude`) to re-authenticate.",
		}}
	}
	return []Notice{{
		Kind:  NoticeFailure,
		Title: "Claude usage update failed",
		Body:  snap.ErrorMessage,
	}}
}

// thresholdNotices fires when the busier window crosses 80% or 95% upward.
func (a *Adapter) thresholdNotices(snap worker.Snapshot) []Notice {
	if !snap.HasData() {
		return nil
	}
	peak := max(snap.FiveHourPct, snap.SevenDayPct)
	prev := a.lastPeak
	a.lastPeak = peak

	switch {
	case peak >= 95 && prev < 95:
		return []Notice{{
			Kind:  NoticeCritical,
			Title: "Claude usage critical",
			Body:  fmt.Sprintf("Usage at %.0f%%, you may be rate limited soon", peak),
		}}
	case peak >= 80 && prev < 80:
		return []Notice{{
			Kind:  NoticeWarning,
			Title: "Claude usage warning",
			Body:  fmt.Sprintf("Usage at %.0f%%", peak),
		}}
	}
	return nil
}

func tooltip(v View, snap worker.Snapshot) string {
	var b strings.Builder
	if !snap.HasData() {
		b.WriteString(title + ": --")
		switch {
		case errors.Is(snap.Err, credentials.ErrNotFound):
			b.WriteString("\nCredentials not found, sign in with Claude Code")
		case snap.HasError:
			b.WriteString("\n" + snap.ErrorMessage)
		default:
			b.WriteString("\nWaiting for first update")
		}
		return b.String()
	}

	b.WriteString(title)
	b.WriteString("\n" + v.FiveHour.line())
	b.WriteString("\n" + v.SevenDay.line())
	b.WriteString("\nUpdated " + v.Updated)
	if snap.HasError {
		b.WriteString("\nError: " + snap.ErrorMessage)
	}
	return b.String()
}

// FormatAgo renders the time since the last successful poll.
func FormatAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm ago", int(d.Hours()), int(d.Minutes())%60)
	}
}
