package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/sandbox"
)

// LogsOptions holds options for the logs command
type LogsOptions struct {
	*GlobalOptions

	// Follow keeps the log stream open as new output arrives.
	Follow bool
}

// NewLogsCommand creates the logs command.
//
// The logs command streams the selected workload's container output, which
// is where ComfyUI's own startup and generation logging goes.
//
// Usage:
//
//	comfydock logs [-f|--follow]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for streaming container logs
func NewLogsCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &LogsOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Stream a workload container's logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			spec, err := resolveWorkload(globalOpts, cfg)
			if err != nil {
				return err
			}

			platform, err := sandbox.NewDockerPlatform(cfg.VolumesDir())
			if err != nil {
				return err
			}

			return platform.Logs(cmd.Context(), spec.AppName, os.Stdout, opts.Follow)
		},
	}

	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "follow log output")

	return cmd
}
