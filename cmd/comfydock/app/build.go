package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comfyops/comfydock/internal/builder"
	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/hub"
	"github.com/comfyops/comfydock/internal/sandbox"
)

// BuildOptions holds options for the build command
type BuildOptions struct {
	*GlobalOptions

	// Redownload forces every model download to bypass the cache.
	Redownload bool
}

// NewBuildCommand creates the build command.
//
// The build command runs the full build pipeline for the selected workload
// without launching a container: image, model downloads, cache volume, and
// output volume.
//
// Usage:
//
//	comfydock build [--redownload]
//
// Parameters:
//   - globalOpts: Global options shared across commands
//
// Returns:
//   - A configured cobra.Command for building a deployment
func NewBuildCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &BuildOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a workload's image and download its models",
		Example: `  # Build the flux deployment
  APP=flux comfydock build

  # Force-refresh every model download
  comfydock build --app wan --redownload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := buildApp(cmd.Context(), opts.GlobalOptions, opts.Redownload)
			if err != nil {
				return err
			}

			fmt.Printf("Built %s (image %s, GPU %s)\n", result.AppName, result.Image.Ref, result.GPU)
			result.PrintVolumeUsage(os.Stdout)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Redownload, "redownload", false,
		"bypass the model cache and re-download every model")

	return cmd
}

// buildApp resolves the selected workload and runs its build pipeline.
//
// Workload resolution happens before the platform is touched, so selecting
// no workload (or an unknown one) fails fast without requiring a running
// Docker daemon.
//
// Parameters:
//   - ctx: Context for cancellation
//   - opts: Global options
//   - redownload: Force model downloads to bypass the cache
//
// Returns:
//   - The build result
//   - The platform, for callers that go on to launch a container
//   - Error if configuration, resolution, or any pipeline step fails
func buildApp(ctx context.Context, opts *GlobalOptions, redownload bool) (*builder.Result, sandbox.Platform, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	spec, err := resolveWorkload(opts, cfg)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := config.LoadTokens(cfg.TokensFile)
	if err != nil {
		return nil, nil, err
	}

	platform, err := sandbox.NewDockerPlatform(cfg.VolumesDir())
	if err != nil {
		return nil, nil, err
	}

	b := builder.New(platform, hub.NewClient(), spec, tokens, builder.Options{
		Redownload: redownload || cfg.Redownload,
		TokensFile: cfg.TokensFile,
	})

	result, err := b.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result, platform, nil
}
