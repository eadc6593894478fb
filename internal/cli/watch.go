package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tnunamak/usagegauge/internal/app"
	"github.com/tnunamak/usagegauge/internal/display"
)

const (
	watchTick   = time.Second
	clearScreen = "\033[H\033[2J"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep polling and redraw the gauges",
		Long: "Run the background poller and redraw the gauges every second. " +
			"Press Enter to refresh now, q then Enter to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				s.PollInterval = interval
				s = s.Clamp()
			}
			a, err := opts.buildApp(cmd, s)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watch(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), watchTick)
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "poll interval in seconds (overrides settings)")
	return cmd
}

// watch drives the display adapter from a ticker until ctx is done or the
// user quits. Input lines request a refresh; "q" quits.
func watch(ctx context.Context, a *app.App, in io.Reader, out, errOut io.Writer, tick time.Duration) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Close()

	stop := make(chan struct{})
	defer close(stop)
	lines := readLines(in, stop)

	tty := isTTY(out)
	width := barWidth(a.Settings.ItemWidth)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var last string
	draw := func() {
		v := a.Display.Tick()
		for _, n := range v.Notices {
			fmt.Fprintf(errOut, "! %s: %s\n", n.Title, n.Body)
		}
		frame := renderWatch(v, width)
		if tty {
			fmt.Fprint(out, clearScreen+frame)
			return
		}
		if frame != last {
			fmt.Fprint(out, frame)
			last = frame
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if line == "q" {
				return nil
			}
			a.Display.Click()
		case <-ticker.C:
			draw()
		}
	}
}

// readLines sends trimmed input lines until in is exhausted or stop is
// closed. A Scan blocked on a terminal only returns with the next line or at
// process exit, so the goroutine can outlive watch until then; it never
// sends after stop is closed.
func readLines(in io.Reader, stop <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-stop:
				return
			}
		}
	}()
	return lines
}

func renderWatch(v display.View, width int) string {
	var b strings.Builder
	for _, g := range []display.Gauge{v.FiveHour, v.SevenDay} {
		fmt.Fprintf(&b, "%s %s %4s  %s\n", g.Label, g.Bar(width), g.ValueText(), g.Reset)
	}
	fmt.Fprintf(&b, "updated %s", v.Updated)
	if v.Stale {
		b.WriteString(" (stale)")
	}
	b.WriteString("\n")
	if v.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", v.Error)
	}
	return b.String()
}
