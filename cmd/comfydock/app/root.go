// Package app provides the command-line interface implementation for
// comfydock.
//
// This package contains all CLI commands and their implementations, built
// on cobra. Commands are organized hierarchically with a root command and
// subcommands.
package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/api"
	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/logger"
	"github.com/comfyops/comfydock/internal/workload"
)

const (
	// cliName is the name of the CLI application
	cliName = "comfydock"

	// cliDescription is the short description shown in help text
	cliDescription = "comfydock - containerized ComfyUI deployments"
)

// GlobalOptions holds options that are common to all commands
type GlobalOptions struct {
	// App is the workload selector; overrides the APP environment variable.
	App string

	// Verbose enables verbose output
	Verbose bool
}

// NewComfydockCommand creates the root comfydock command with all
// subcommands.
//
// The root command provides the main entry point for the CLI. It sets up
// global flags, wires verbose logging, and registers all subcommands.
//
// Returns:
//   - A configured cobra.Command ready for execution
func NewComfydockCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   cliName,
		Short: cliDescription,
		Long: `comfydock builds and runs containerized ComfyUI deployments.

A deployment is selected by workload (` + strings.Join(workloadNames(), ", ") + `):
each workload pins its GPU tier, custom nodes, and model weights. Model
weights are downloaded once into a shared cache and linked into each
deployment's model tree, so switching workloads never re-downloads a model
another workload already fetched.

The workload is chosen with --app or the APP environment variable (a .env
file in the working directory is honored).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(opts.Verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.App, "app", "",
		"workload to operate on (default: APP environment variable)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	cmd.AddCommand(
		NewUpCommand(opts),
		NewBuildCommand(opts),
		NewLaunchCommand(opts),
		NewDownCommand(opts),
		NewLogsCommand(opts),
		NewListCommand(opts),
		NewShowCommand(opts),
		NewVolumeCommand(opts),
		NewVersionCommand(opts),
	)

	return cmd
}

// resolveWorkload selects the workload spec for a command.
//
// The --app flag wins over the APP environment variable. An unset or
// unknown selector is a fatal configuration error, reported before any
// image build or network step runs.
//
// Parameters:
//   - opts: Global options carrying the --app flag value
//   - cfg: The loaded configuration carrying the APP variable
//
// Returns:
//   - The selected workload spec
//   - Error if no workload is selected or the selector is unknown
func resolveWorkload(opts *GlobalOptions, cfg *config.Config) (*workload.Spec, error) {
	selector := opts.App
	if selector == "" {
		selector = cfg.App
	}
	if selector == "" {
		return nil, fmt.Errorf("no workload selected: set the APP environment variable or pass --app (one of: %s)",
			strings.Join(workloadNames(), ", "))
	}

	w, err := api.ParseWorkload(selector)
	if err != nil {
		return nil, err
	}
	return workload.Get(w)
}

// workloadNames returns the registered workload names for help text.
func workloadNames() []string {
	names := make([]string, 0, len(api.Workloads()))
	for _, w := range api.Workloads() {
		names = append(names, string(w))
	}
	return names
}
