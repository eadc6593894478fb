//go:build tray

package tray

import (
	"context"
	"fmt"
	"time"

	"fyne.io/systray"

	"github.com/tnunamak/usagegauge/internal/app"
	"github.com/tnunamak/usagegauge/internal/display"
)

// tickInterval is how often the tray re-reads the poller snapshot. It is
// independent of the poll interval.
const tickInterval = time.Second

type menu struct {
	five    *systray.MenuItem
	seven   *systray.MenuItem
	updated *systray.MenuItem
	status  *systray.MenuItem
	refresh *systray.MenuItem
	quit    *systray.MenuItem
}

// Run shows the tray icon and blocks until the user quits.
func Run(a *app.App) int {
	exit := make(chan struct{})
	systray.Run(func() { onReady(a, exit) }, func() {
		close(exit)
		a.Close()
	})
	return 0
}

func onReady(a *app.App, exit <-chan struct{}) {
	systray.SetTitle("usage")
	systray.SetTooltip("Claude Usage: --")
	systray.SetIcon(iconFor(display.LevelNone))

	header := systray.AddMenuItem("Claude Usage", "")
	header.Disable()
	systray.AddSeparator()

	m := &menu{
		five:    systray.AddMenuItem("5h:  --", ""),
		seven:   systray.AddMenuItem("7d:  --", ""),
		updated: systray.AddMenuItem("Updated never", ""),
		status:  systray.AddMenuItem("", ""),
	}
	m.five.Disable()
	m.seven.Disable()
	m.updated.Disable()
	m.status.Disable()
	m.status.Hide()
	systray.AddSeparator()
	m.refresh = systray.AddMenuItem("Refresh Now", "Fetch usage immediately")
	m.quit = systray.AddMenuItem("Quit", "")

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		a.Log.Error(ctx, "start poller", "error", err)
	}

	go loop(ctx, a, m, exit)
}

// loop drives the menu until the user quits or systray exits.
func loop(ctx context.Context, a *app.App, m *menu, exit <-chan struct{}) {
	level := display.Level(-1)
	pump(tickInterval, events{
		refresh: m.refresh.ClickedCh,
		quit:    m.quit.ClickedCh,
		exit:    exit,
	}, handlers{
		tick: func() {
			v := a.Display.Tick()
			m.render(v)
			if l := v.Level(); l != level {
				systray.SetIcon(iconFor(l))
				level = l
			}
			for _, n := range v.Notices {
				if err := notify(n); err != nil {
					a.Log.Debug(ctx, "notification failed", "error", err)
				}
			}
		},
		refresh: a.Display.Click,
		quit:    systray.Quit,
	})
}

func (m *menu) render(v display.View) {
	m.five.SetTitle(gaugeTitle(v.FiveHour))
	m.seven.SetTitle(gaugeTitle(v.SevenDay))
	m.updated.SetTitle("Updated " + v.Updated)

	if v.Error != "" {
		m.status.SetTitle("Error: " + v.Error)
		m.status.Show()
	} else {
		m.status.Hide()
	}

	systray.SetTitle(fmt.Sprintf("5h:%s 7d:%s", v.FiveHour.ValueText(), v.SevenDay.ValueText()))
	systray.SetTooltip(v.Tooltip)
}

func gaugeTitle(g display.Gauge) string {
	if g.Reset == "" {
		return fmt.Sprintf("%s: %4s", g.Label, g.ValueText())
	}
	return fmt.Sprintf("%s: %4s  %s", g.Label, g.ValueText(), g.Reset)
}
