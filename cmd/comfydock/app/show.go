package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/api"
	"github.com/comfyops/comfydock/internal/workload"
)

// NewShowCommand creates the show command.
//
// The show command prints the full specification of one workload: GPU tier,
// packages, custom nodes, and the complete model manifest.
//
// Usage:
//
//	comfydock show WORKLOAD
//
// Examples:
//
//	comfydock show flux
//	comfydock show wan
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for showing a workload spec
func NewShowCommand(globalOpts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show WORKLOAD",
		Short: "Show a workload's full specification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := api.ParseWorkload(args[0])
			if err != nil {
				return err
			}

			spec, err := workload.Get(w)
			if err != nil {
				return err
			}

			printSpec(spec)
			return nil
		},
	}
}

// printSpec writes a workload spec in a human-readable layout.
func printSpec(spec *workload.Spec) {
	fmt.Printf("Workload:      %s\n", spec.Workload)
	fmt.Printf("Description:   %s\n", spec.Description)
	fmt.Printf("GPU:           %s\n", spec.GPU)
	fmt.Printf("App name:      %s\n", spec.AppName)
	fmt.Printf("Output volume: %s\n", spec.OutputVolume)

	if len(spec.AptPackages) > 0 {
		fmt.Printf("Apt packages:  %s\n", strings.Join(spec.AptPackages, ", "))
	}
	if len(spec.PipPackages) > 0 {
		fmt.Printf("Pip packages:  %s\n", strings.Join(spec.PipPackages, ", "))
	}
	if len(spec.PostInstallPip) > 0 {
		fmt.Printf("Post-install:  %s\n", strings.Join(spec.PostInstallPip, ", "))
	}
	if len(spec.CustomNodes) > 0 {
		fmt.Printf("Custom nodes:  %s\n", strings.Join(spec.CustomNodes, ", "))
	}

	fmt.Printf("Models (%d):\n", len(spec.Models))
	for _, m := range spec.Models {
		switch m.Kind {
		case workload.SourceHubFile:
			fmt.Printf("  %-14s %s/%s -> %s\n", m.Kind, m.Repo, m.File, m.Dir)
		case workload.SourceHubSnapshot:
			fmt.Printf("  %-14s %s -> %s/%s\n", m.Kind, m.Repo, m.Dir, m.Filename)
		case workload.SourceURL:
			fmt.Printf("  %-14s %s -> %s/%s\n", m.Kind, m.URL, m.Dir, m.Filename)
		}
		if m.TokenKey != "" {
			fmt.Printf("  %-14s requires credential %s\n", "", m.TokenKey)
		}
	}
}
