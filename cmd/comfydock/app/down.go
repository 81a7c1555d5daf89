package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/sandbox"
)

// NewDownCommand creates the down command.
//
// The down command stops and removes the selected workload's container.
// Volumes are never touched: the model cache, model tree, and generation
// outputs all survive a down/up cycle.
//
// Usage:
//
//	comfydock down
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for tearing down a deployment
func NewDownCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop and remove a workload's container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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

			if err := platform.Stop(ctx, spec.AppName); err != nil {
				return err
			}
			if err := platform.Remove(ctx, spec.AppName); err != nil {
				return err
			}

			fmt.Printf("%s is down. Volumes are kept; `comfydock up` restores the deployment.\n", spec.AppName)
			return nil
		},
	}
}
