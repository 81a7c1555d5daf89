// Package builder implements the pipeline that turns a workload spec into
// a runnable deployment: a container image plus its attached volumes.
//
// The pipeline is a fixed, strictly ordered list of step functions:
//
//	base image -> system packages -> custom nodes -> post-install fixups ->
//	file copy-in -> model download (+ cache volume) -> output volume
//
// Workload customization is pure data consumed by the generic steps, so a
// workload can only ever append to what earlier steps produced, never
// remove or reorder it. Each image-affecting step derives a new ImageSpec
// value from the previous one; the final spec is materialized into a real
// image in one platform build at the end.
package builder

import (
	"context"
	"fmt"
	"io"

	"github.com/comfyops/comfydock/internal/api"
	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/hub"
	"github.com/comfyops/comfydock/internal/logger"
	"github.com/comfyops/comfydock/internal/sandbox"
	"github.com/comfyops/comfydock/internal/workload"
)

// Fetcher downloads model artifacts. *hub.Client is the production
// implementation; tests substitute a recording fake.
type Fetcher interface {
	DownloadFile(ctx context.Context, req hub.FileRequest) (string, error)
	DownloadSnapshot(ctx context.Context, req hub.SnapshotRequest) (string, error)
	DownloadURL(ctx context.Context, req hub.URLRequest) (string, error)
}

// Options control a single build pipeline invocation.
type Options struct {
	// Redownload forces every model download to bypass the cache; useful
	// to force-fetch updated models.
	Redownload bool

	// TokensFile is the local credential file copied into the image and
	// used for authenticated downloads.
	TokensFile string
}

// Result is the outcome of a completed build pipeline.
type Result struct {
	// Workload is the workload that was built.
	Workload api.Workload

	// GPU is the GPU tier the deployment requests.
	GPU api.GPUTier

	// AppName is the application name (image tag, container name).
	AppName string

	// OutputVolume is the name of the generation output volume.
	OutputVolume string

	// Image is the materialized image handle.
	Image sandbox.Image

	// ImageSpec is the composed image spec the image was built from.
	ImageSpec sandbox.ImageSpec

	// Volumes maps in-container mount paths to the volumes mounted there.
	Volumes map[string]sandbox.Volume
}

// PrintVolumeUsage writes the operator hints for retrieving and deleting
// the output volume's contents out-of-band.
func (r *Result) PrintVolumeUsage(w io.Writer) {
	fmt.Fprintf(w, "`comfydock volume get %s <file>` to download output generations\n", r.OutputVolume)
	fmt.Fprintf(w, "`comfydock volume delete %s` to delete the output volume\n", r.OutputVolume)
}

// Builder runs the build pipeline for one workload.
type Builder struct {
	platform sandbox.Platform
	fetcher  Fetcher
	spec     *workload.Spec
	tokens   map[string]string
	opts     Options
}

// New creates a builder for the given workload spec.
//
// Parameters:
//   - platform: The deployment platform (images, volumes, containers)
//   - fetcher: The model download client
//   - spec: The workload specification
//   - tokens: Credential map for authenticated downloads
//   - opts: Build options
func New(platform sandbox.Platform, fetcher Fetcher, spec *workload.Spec, tokens map[string]string, opts Options) *Builder {
	if tokens == nil {
		tokens = map[string]string{}
	}
	return &Builder{
		platform: platform,
		fetcher:  fetcher,
		spec:     spec,
		tokens:   tokens,
		opts:     opts,
	}
}

// state is the pipeline's working state, threaded through the steps.
type state struct {
	image   sandbox.ImageSpec
	volumes map[string]sandbox.Volume
}

// step is one named stage of the pipeline.
type step struct {
	name  string
	apply func(ctx context.Context, st *state) error
}

// steps returns the pipeline stages in their fixed execution order.
func (b *Builder) steps() []step {
	return []step{
		{"base image", b.baseImage},
		{"system packages", b.systemPackages},
		{"custom nodes", b.customNodes},
		{"post-install fixups", b.postInstall},
		{"file copy-in", b.copyFiles},
		{"model download", b.downloadModels},
		{"output volume", b.outputVolume},
	}
}

// Build runs the pipeline and materializes the image.
//
// Every step completes before the next starts; any failure aborts the
// build immediately with the failing step named in the error. Nothing is
// rolled back: artifacts already cached from earlier successful steps stay
// cached.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - The build result (image handle, volume mapping, GPU tier)
//   - Error if any step or the final image build fails
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	st := &state{volumes: make(map[string]sandbox.Volume)}

	for _, s := range b.steps() {
		logger.Info("Pipeline step: %s", s.name)
		if err := s.apply(ctx, st); err != nil {
			return nil, fmt.Errorf("step %q failed: %w", s.name, err)
		}
	}

	tag := b.spec.AppName + ":latest"
	image, err := b.platform.BuildImage(ctx, st.image, sandbox.BuildOptions{
		Tag:     tag,
		NoCache: b.opts.Redownload,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Workload:     b.spec.Workload,
		GPU:          b.spec.GPU,
		AppName:      b.spec.AppName,
		OutputVolume: b.spec.OutputVolume,
		Image:        image,
		ImageSpec:    st.image,
		Volumes:      st.volumes,
	}, nil
}

// ModelsVolumeName returns the name of the volume holding a workload's
// model directory tree (the symbolic links into the shared cache).
func ModelsVolumeName(spec *workload.Spec) string {
	return spec.AppName + "-models"
}

// LaunchCommand returns the container command that starts the ComfyUI
// server for a deployment.
func LaunchCommand() []string {
	return []string{
		"comfy", "launch", "--",
		"--listen", "0.0.0.0",
		"--port", fmt.Sprintf("%d", config.ComfyPort),
	}
}
