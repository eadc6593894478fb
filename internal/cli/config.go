package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var (
		credentialsPath string
		pollInterval    int
		itemWidth       int
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long:  "Print the settings file. With flags, update the given keys and save the file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.settingsPath()
			if err != nil {
				return err
			}
			s, err := opts.settings()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("credentials-path") || flags.Changed("poll-interval") || flags.Changed("item-width") {
				if flags.Changed("credentials-path") {
					s.CredentialsPath = credentialsPath
				}
				if flags.Changed("poll-interval") {
					s.PollInterval = pollInterval
				}
				if flags.Changed("item-width") {
					s.ItemWidth = itemWidth
				}
				s = s.Clamp()
				if err := s.Save(path); err != nil {
					return err
				}
			}

			effective, err := s.EffectiveCredentialsPath()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n%s", path, data)
			fmt.Fprintf(out, "# effective credentials: %s\n", effective)
			return nil
		},
	}
	cmd.Flags().StringVar(&credentialsPath, "credentials-path", "", "credentials file override (empty for the default)")
	cmd.Flags().IntVar(&pollInterval, "poll-interval", 0, "poll interval in seconds (10-3600)")
	cmd.Flags().IntVar(&itemWidth, "item-width", 0, "gauge width in pixels (80-400)")
	return cmd
}
