package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tnunamak/usagegauge/internal/autostart"
	"github.com/tnunamak/usagegauge/internal/tray"
)

func newTrayCmd(opts *globalOptions) *cobra.Command {
	var install, uninstall bool
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Run as a system tray icon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if install || uninstall {
				inst, err := autostart.Default()
				if err != nil {
					return err
				}
				if install {
					if err := inst.Install(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "usagegauge will start at login")
					return nil
				}
				if err := inst.Uninstall(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "usagegauge autostart removed")
				return nil
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			if code := tray.Run(a); code != 0 {
				return &exitError{code: code, err: fmt.Errorf("tray exited with status %d", code)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "enable launch at login")
	cmd.Flags().BoolVar(&uninstall, "uninstall", false, "disable launch at login")
	cmd.MarkFlagsMutuallyExclusive("install", "uninstall")
	return cmd
}
