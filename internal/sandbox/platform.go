// Package sandbox provides the platform layer that comfydock deploys onto.
//
// The platform owns three resource kinds: container images (built from
// ImageSpec values), persistent volumes (named, created if absent), and
// running containers. The Platform interface keeps the build pipeline and
// the CLI independent of the concrete backend; DockerPlatform is the
// production implementation against a local Docker daemon.
package sandbox

import (
	"context"
	"io"

	"github.com/comfyops/comfydock/internal/api"
)

// Image is the handle to a built container image.
type Image struct {
	// Ref is the image reference (name:tag) the image was built under.
	Ref string

	// ID is the content-addressed image ID reported by the platform.
	ID string
}

// Volume is the handle to a named persistent volume.
//
// Volumes are managed host directories bind-mounted into containers. The
// mountpoint doubles as the in-container path: the platform mounts each
// volume at the same absolute path it has on the host, so symbolic links
// created on the host resolve identically inside the container.
type Volume struct {
	// Name is the volume's unique name.
	Name string

	// Mountpoint is the host directory backing the volume.
	Mountpoint string
}

// Container is the handle to a launched container.
type Container struct {
	// ID is the platform container ID.
	ID string

	// Name is the fixed container name (the workload's app name).
	Name string
}

// BuildOptions control image materialization.
type BuildOptions struct {
	// Tag is the image reference to build under.
	Tag string

	// NoCache forces every layer to be rebuilt.
	NoCache bool
}

// LaunchSpec describes the single container instance of a deployed app.
type LaunchSpec struct {
	// Image is the image to run.
	Image Image

	// Name is the fixed container name. Using the app name as the
	// container name is what caps the deployment at one running instance.
	Name string

	// GPU is the GPU tier label; a valid tier makes the platform request
	// GPU devices for the container.
	GPU api.GPUTier

	// Cmd is the container command.
	Cmd []string

	// Volumes maps in-container mount paths to volumes. A volume whose
	// mountpoint equals its mount path is mounted same-path (see Volume).
	Volumes map[string]Volume

	// ContainerPort is the port the application listens on inside the
	// container.
	ContainerPort int

	// HostPort is the host port the container port is published on.
	HostPort int

	// Labels are additional container labels.
	Labels map[string]string
}

// Platform is the deployment backend.
//
// All operations are synchronous: each call completes (or fails) before the
// caller moves on, matching the strictly ordered build pipeline.
type Platform interface {
	// BuildImage materializes an image spec into a real image.
	BuildImage(ctx context.Context, spec ImageSpec, opts BuildOptions) (Image, error)

	// EnsureVolume returns the named volume, creating it if absent.
	EnsureVolume(ctx context.Context, name string) (Volume, error)

	// Launch creates and starts the app container.
	Launch(ctx context.Context, spec LaunchSpec) (Container, error)

	// Stop gracefully stops the named app container.
	Stop(ctx context.Context, name string) error

	// Remove force-removes the named app container.
	Remove(ctx context.Context, name string) error

	// Logs streams the named app container's output to w. With follow set
	// the stream stays open until the container stops or ctx is cancelled.
	Logs(ctx context.Context, name string, w io.Writer, follow bool) error
}
