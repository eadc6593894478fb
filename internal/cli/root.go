package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/app"
	"github.com/tnunamak/usagegauge/internal/config"
	"github.com/tnunamak/usagegauge/internal/logging"
)

var Version = "dev"

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type globalOptions struct {
	configPath string
	verbose    bool

	// clientOpts is appended to the API client defaults.
	clientOpts []api.Option
}

func (o *globalOptions) settingsPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

func (o *globalOptions) settings() (config.Settings, error) {
	path, err := o.settingsPath()
	if err != nil {
		return config.Default(), err
	}
	return config.Load(path)
}

func (o *globalOptions) logger(w io.Writer) logging.Logger {
	return logging.NewText(w, o.verbose)
}

func (o *globalOptions) newApp(cmd *cobra.Command) (*app.App, error) {
	s, err := o.settings()
	if err != nil {
		return nil, err
	}
	return o.buildApp(cmd, s)
}

func (o *globalOptions) buildApp(cmd *cobra.Command, s config.Settings) (*app.App, error) {
	return app.New(s, o.logger(cmd.ErrOrStderr()), Version, o.clientOpts, nil)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(opts *globalOptions) *cobra.Command {

	root := &cobra.Command{
		Use:   "usagegauge",
		Short: "Claude usage gauges for the terminal and system tray",
		Long: "usagegauge polls the Claude usage API with the OAuth credentials Claude Code keeps on disk, " +
			"refreshing them when they expire, and shows 5-hour and 7-day utilization.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts, statusOptions{})
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default <binary>.yaml beside the executable)")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "debug logging on stderr")

	root.AddCommand(
		newStatusCmd(opts),
		newWatchCmd(opts),
		newTrayCmd(opts),
		newConfigCmd(opts),
	)

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("usagegauge %s\n", Version))

	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "usagegauge: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}
