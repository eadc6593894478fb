package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/credentials"
	"github.com/tnunamak/usagegauge/internal/display"
	"github.com/tnunamak/usagegauge/internal/worker"
)

const reset = "\033[0m"

type statusOptions struct {
	json  bool
	plain bool
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var so statusOptions
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current usage once",
		Long:  "Fetch usage once, refreshing the stored token if it is about to expire, and print both windows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts, so)
		},
	}
	cmd.Flags().BoolVar(&so.json, "json", false, "output JSON")
	cmd.Flags().BoolVar(&so.plain, "plain", false, "plain text (no color)")
	return cmd
}

func runStatus(cmd *cobra.Command, opts *globalOptions, so statusOptions) error {
	a, err := opts.newApp(cmd)
	if err != nil {
		return err
	}

	usage, err := a.Client.FetchUsageWithAutoRefresh(cmd.Context())
	if err != nil {
		return classify(err)
	}

	now := time.Now()
	snap := worker.NewSnapshot(usage, now)
	view := display.New(staticSource(snap), display.WithClock(func() time.Time { return now })).Tick()
	out := cmd.OutOrStdout()
	width := barWidth(a.Settings.ItemWidth)

	switch {
	case so.json:
		return printJSON(out, usage, snap, view)
	case so.plain || !isTTY(out):
		printPlain(out, view)
	default:
		printColor(out, view, width)
	}
	return nil
}

// classify maps credential problems to exit code 2, everything else to 1.
func classify(err error) error {
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		return &exitError{code: 2, err: fmt.Errorf("%w, sign in with Claude Code first", err)}
	case errors.Is(err, credentials.ErrParse):
		return &exitError{code: 2, err: err}
	default:
		return &exitError{code: 1, err: err}
	}
}

// staticSource serves one snapshot to the display adapter.
type staticSource worker.Snapshot

func (s staticSource) Snapshot() worker.Snapshot { return worker.Snapshot(s) }
func (staticSource) RequestRefresh()            {}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// barWidth converts the configured item width in pixels to terminal cells.
func barWidth(itemWidth int) int {
	return max(itemWidth/8, 5)
}

func color(l display.Level) string {
	switch l {
	case display.LevelCritical:
		return "\033[31m"
	case display.LevelWarning:
		return "\033[33m"
	default:
		return "\033[32m"
	}
}

func printColor(w io.Writer, v display.View, width int) {
	prefix := "usagegauge  "
	for _, g := range []display.Gauge{v.FiveHour, v.SevenDay} {
		fmt.Fprintf(w, "%s%s %s%s%s %4s  %s  %s\n",
			prefix, g.Label, color(g.Level()), g.Bar(width), reset, g.ValueText(), g.Reset, g.Projection.ColorIndicator())
		prefix = "            "
	}
}

func printPlain(w io.Writer, v display.View) {
	fmt.Fprintf(w, "5h: %s (%s)  7d: %s (%s)\n",
		v.FiveHour.ValueText(), resetOrUnknown(v.FiveHour.Reset),
		v.SevenDay.ValueText(), resetOrUnknown(v.SevenDay.Reset))
}

func resetOrUnknown(s string) string {
	if s == "" {
		return "no reset scheduled"
	}
	return s
}

type jsonWindow struct {
	Utilization  float64 `json:"utilization"`
	ResetsAt     string  `json:"resets_at,omitempty"`
	ResetLabel   string  `json:"reset_label,omitempty"`
	ProjectedPct float64 `json:"projected_pct"`
	Projection   string  `json:"projection,omitempty"`
}

type jsonOutput struct {
	FiveHour  jsonWindow `json:"five_hour"`
	SevenDay  jsonWindow `json:"seven_day"`
	FetchedAt time.Time  `json:"fetched_at"`
}

func printJSON(w io.Writer, u api.Usage, snap worker.Snapshot, v display.View) error {
	out := jsonOutput{
		FiveHour:  window(u.FiveHour, v.FiveHour),
		SevenDay:  window(u.SevenDay, v.SevenDay),
		FetchedAt: snap.LastSuccess.UTC().Truncate(time.Second),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func window(w api.Window, g display.Gauge) jsonWindow {
	return jsonWindow{
		Utilization:  w.Utilization,
		ResetsAt:     w.ResetsAt,
		ResetLabel:   g.Reset,
		ProjectedPct: g.Projection.ProjectedPct,
		Projection:   g.Projection.Indicator(),
	}
}
