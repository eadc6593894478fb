package display

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/credentials"
	"github.com/tnunamak/usagegauge/internal/worker"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu        sync.Mutex
	snap      worker.Snapshot
	refreshes int
}

func (f *fakeSource) Snapshot() worker.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) RequestRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeSource) set(s worker.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func goodSnapshot(five, seven float64) worker.Snapshot {
	return worker.Snapshot{
		FiveHourPct:      five,
		SevenDayPct:      seven,
		FiveHourReset:    "Resets in 2h 30m",
		SevenDayReset:    "Resets in 3d 3h",
		FiveHourResetsAt: now.Add(150 * time.Minute),
		SevenDayResetsAt: now.Add(75 * time.Hour),
		LastSuccess:      now.Add(-3 * time.Minute),
	}
}

func withError(s worker.Snapshot, err error) worker.Snapshot {
	s.HasError = true
	s.Err = err
	s.ErrorMessage = err.Error()
	return s
}

func newAdapter(src Source) *Adapter {
	return New(src, WithClock(func() time.Time { return now }))
}

func TestTick_NoDataYet(t *testing.T) {
	a := newAdapter(&fakeSource{})

	v := a.Tick()
	assert.Equal(t, "--", v.FiveHour.ValueText())
	assert.Equal(t, "--", v.SevenDay.ValueText())
	assert.Equal(t, "never", v.Updated)
	assert.False(t, v.Stale)
	assert.Empty(t, v.Notices)
	assert.Equal(t, LevelNone, v.Level())
	assert.Equal(t, "Claude Usage: --\nWaiting for first update", v.Tooltip)
}

func TestTick_WithData(t *testing.T) {
	a := newAdapter(&fakeSource{snap: goodSnapshot(40, 10)})

	v := a.Tick()
	assert.Equal(t, "40%", v.FiveHour.ValueText())
	assert.Equal(t, "10%", v.SevenDay.ValueText())
	assert.Equal(t, "3m ago", v.Updated)
	assert.False(t, v.Stale)
	assert.Equal(t, LevelOK, v.Level())
	assert.Equal(t,
		"Claude Usage\n5h: 40% (Resets in 2h 30m, on track)\n7d: 10% (Resets in 3d 3h, on track)\nUpdated 3m ago",
		v.Tooltip)
}

func TestTick_StaleDataSurvivesError(t *testing.T) {
	err := &api.HTTPError{Op: "usage fetch", StatusCode: 503}
	a := newAdapter(&fakeSource{snap: withError(goodSnapshot(40, 10), err)})

	v := a.Tick()
	assert.True(t, v.Stale)
	assert.Equal(t, "40%", v.FiveHour.ValueText())
	assert.Equal(t, "usage fetch failed: HTTP 503", v.Error)
	assert.Contains(t, v.Tooltip, "Updated 3m ago")
	assert.Contains(t, v.Tooltip, "Error: usage fetch failed: HTTP 503")
}

func TestTick_CredentialsMissingNotifiesOnce(t *testing.T) {
	missing := fmt.Errorf("%w: /home/u/.claude/.credentials.json", credentials.ErrNotFound)
	src := &fakeSource{snap: withError(worker.Snapshot{}, missing)}
	a := newAdapter(src)

	v := a.Tick()
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeCredentialsMissing, v.Notices[0].Kind)
	assert.Equal(t, "critical", v.Notices[0].Urgency())
	assert.Contains(t, v.Tooltip, "sign in with Claude Code")

	for i := 0; i < 3; i++ {
		assert.Empty(t, a.Tick().Notices, "same condition must not repeat")
	}

	// A different failure is a new condition.
	src.set(withError(worker.Snapshot{}, errors.New("usage fetch failed: HTTP 500")))
	v = a.Tick()
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeFailure, v.Notices[0].Kind)
	assert.Equal(t, "usage fetch failed: HTTP 500", v.Notices[0].Body)
	assert.Empty(t, a.Tick().Notices)

	// Success re-arms.
	src.set(goodSnapshot(10, 10))
	assert.Empty(t, a.Tick().Notices)
	src.set(withError(goodSnapshot(10, 10), errors.New("usage fetch failed: HTTP 500")))
	assert.Len(t, a.Tick().Notices, 1)
}

func TestTick_ThresholdNotices(t *testing.T) {
	src := &fakeSource{snap: goodSnapshot(50, 10)}
	a := newAdapter(src)
	assert.Empty(t, a.Tick().Notices)

	src.set(goodSnapshot(82, 10))
	v := a.Tick()
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeWarning, v.Notices[0].Kind)
	assert.Equal(t, "Usage at 82%", v.Notices[0].Body)
	assert.Equal(t, LevelCritical, v.Level())

	assert.Empty(t, a.Tick().Notices, "no repeat while above threshold")

	src.set(goodSnapshot(60, 96))
	v = a.Tick()
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeCritical, v.Notices[0].Kind)

	src.set(goodSnapshot(5, 5))
	assert.Empty(t, a.Tick().Notices)
	src.set(goodSnapshot(85, 5))
	assert.Len(t, a.Tick().Notices, 1, "crossing again after dropping notifies again")
}

func TestClick_RequestsRefresh(t *testing.T) {
	src := &fakeSource{}
	a := newAdapter(src)

	a.Click()
	a.Click()
	assert.Equal(t, 2, src.refreshes)
}

func TestGauge_Bar(t *testing.T) {
	tests := []struct {
		name  string
		g     Gauge
		width int
		want  string
	}{
		{"no data", Gauge{Pct: 50}, 4, "░░░░"},
		{"half", Gauge{Pct: 50, HasData: true}, 4, "██░░"},
		{"tiny but nonzero", Gauge{Pct: 0.5, HasData: true}, 10, "█░░░░░░░░░"},
		{"over 100", Gauge{Pct: 130, HasData: true}, 3, "███"},
		{"zero width", Gauge{Pct: 50, HasData: true}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.g.Bar(tt.width))
		})
	}
}

func TestGauge_Level(t *testing.T) {
	assert.Equal(t, LevelNone, Gauge{Pct: 99}.Level())
	assert.Equal(t, LevelOK, Gauge{Pct: 59, HasData: true}.Level())
	assert.Equal(t, LevelWarning, Gauge{Pct: 60, HasData: true}.Level())
	assert.Equal(t, LevelCritical, Gauge{Pct: 80, HasData: true}.Level())
	assert.Equal(t, "warning", LevelWarning.String())
}

func TestFormatAgo(t *testing.T) {
	assert.Equal(t, "just now", FormatAgo(30*time.Second))
	assert.Equal(t, "12m ago", FormatAgo(12*time.Minute+40*time.Second))
	assert.Equal(t, "2h 5m ago", FormatAgo(125*time.Minute))
}
