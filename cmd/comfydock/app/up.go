package app

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/builder"
	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/logger"
	"github.com/comfyops/comfydock/internal/sandbox"
	"github.com/comfyops/comfydock/internal/server"
)

// UpOptions holds options for the up command
type UpOptions struct {
	*GlobalOptions

	// Redownload forces every model download to bypass the cache.
	Redownload bool
}

// NewUpCommand creates the up command.
//
// The up command is the full deployment path: it runs the build pipeline,
// launches the app container, waits for ComfyUI to come up, and then serves
// the web endpoint in the foreground until interrupted.
//
// Usage:
//
//	comfydock up [--redownload]
//
// Examples:
//
//	# Deploy the krita workload
//	APP=krita comfydock up
//
//	# Deploy ace-step on a different endpoint port
//	COMFYDOCK_PORT=9000 comfydock up --app ace-step
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for deploying a workload
func NewUpCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &UpOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Build, launch, and serve a workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Redownload, "redownload", false,
		"bypass the model cache and re-download every model")

	return cmd
}

// runUp executes the up command logic.
func runUp(cmd *cobra.Command, opts *UpOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	result, platform, err := buildApp(ctx, opts.GlobalOptions, opts.Redownload)
	if err != nil {
		return err
	}

	result.PrintVolumeUsage(os.Stdout)

	// The container publishes ComfyUI on a local backend port; the web
	// endpoint out front is what enforces the concurrency cap.
	_, err = platform.Launch(ctx, sandbox.LaunchSpec{
		Image:         result.Image,
		Name:          result.AppName,
		GPU:           result.GPU,
		Cmd:           builder.LaunchCommand(),
		Volumes:       result.Volumes,
		ContainerPort: config.ComfyPort,
		HostPort:      cfg.BackendPort,
	})
	if err != nil {
		return err
	}

	backendURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.BackendPort)
	logger.Info("Waiting up to %s for %s to come up...", config.StartupTimeout, result.AppName)
	if err := server.WaitReady(ctx, backendURL, config.StartupTimeout); err != nil {
		return err
	}

	target, err := url.Parse(backendURL)
	if err != nil {
		return err
	}

	endpoint := server.NewEndpoint(
		fmt.Sprintf(":%d", cfg.Port), target, config.MaxConcurrentInputs)

	fmt.Printf("%s is up: http://localhost:%d\n", result.AppName, cfg.Port)
	if err := endpoint.Start(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
