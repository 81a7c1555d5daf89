package app

import (
	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/builder"
	"github.com/comfyops/comfydock/internal/server"
)

// NewLaunchCommand creates the launch command.
//
// The launch command starts ComfyUI as a local subprocess under a
// pseudo-terminal, for hosts that already carry a working comfy-cli
// install. No container, volumes, or web endpoint are involved.
//
// Usage:
//
//	comfydock launch
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for launching ComfyUI natively
func NewLaunchCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Run ComfyUI as a local subprocess (no container)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.RunNative(builder.LaunchCommand())
		},
	}
}
