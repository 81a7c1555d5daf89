package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"github.com/comfyops/comfydock/internal/logger"
)

const (
	// labelManaged marks resources created by comfydock.
	labelManaged = "comfydock.managed"

	// labelBuild carries the unique ID of the build that produced an image.
	labelBuild = "comfydock.build"

	// labelGPU records the GPU tier a container was launched for.
	labelGPU = "comfydock.gpu"

	// stopTimeoutSeconds is how long a container gets to shut down
	// gracefully before the daemon kills it.
	stopTimeoutSeconds = 30
)

// DockerPlatform implements Platform against a local Docker daemon.
//
// Volumes are managed host directories under <dataDir>/volumes, bind-mounted
// into containers at their own host paths so host-created symbolic links
// stay valid in-container.
type DockerPlatform struct {
	client     *client.Client
	volumesDir string
}

// NewDockerPlatform creates a Docker-backed platform.
//
// This function:
//  1. Creates a Docker client with environment-based configuration
//     (respects DOCKER_HOST, DOCKER_TLS_VERIFY, DOCKER_CERT_PATH)
//  2. Negotiates the API version with the daemon
//  3. Verifies daemon connectivity with a 5-second timeout
//
// Parameters:
//   - volumesDir: Host directory under which managed volumes are created
//
// Returns:
//   - The platform instance
//   - Error if the Docker daemon is unreachable
func NewDockerPlatform(volumesDir string) (*DockerPlatform, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("Docker daemon is not accessible: %w", err)
	}

	return &DockerPlatform{client: cli, volumesDir: volumesDir}, nil
}

// BuildImage materializes an image spec by rendering it as a Dockerfile,
// packing the build context as a tar stream, and running a daemon-side
// build.
//
// The build output stream is forwarded to the debug log; an error message
// in the stream fails the build.
//
// Parameters:
//   - ctx: Context for cancellation
//   - spec: The image spec to materialize
//   - opts: Tag and cache options
//
// Returns:
//   - The built image handle
//   - Error if context packing or the daemon build fails
func (p *DockerPlatform) BuildImage(ctx context.Context, spec ImageSpec, opts BuildOptions) (Image, error) {
	buildCtx, err := buildContextTar(spec)
	if err != nil {
		return Image{}, fmt.Errorf("failed to pack build context: %w", err)
	}

	buildID := uuid.NewString()
	logger.Info("Building image %s (build %s)", opts.Tag, buildID)

	resp, err := p.client.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       []string{opts.Tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
		NoCache:    opts.NoCache,
		Labels: map[string]string{
			labelManaged: "true",
			labelBuild:   buildID,
		},
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to start image build: %w", err)
	}
	defer resp.Body.Close()

	imageID, err := drainBuildOutput(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("image build failed: %w", err)
	}

	logger.Info("Built image %s", opts.Tag)
	return Image{Ref: opts.Tag, ID: imageID}, nil
}

// EnsureVolume returns the named managed volume, creating its backing
// directory if absent. Creation is idempotent.
func (p *DockerPlatform) EnsureVolume(ctx context.Context, name string) (Volume, error) {
	if name == "" {
		return Volume{}, fmt.Errorf("volume name cannot be empty")
	}

	mountpoint := filepath.Join(p.volumesDir, name)
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return Volume{}, fmt.Errorf("failed to create volume %s: %w", name, err)
	}

	logger.Debug("Volume %s at %s", name, mountpoint)
	return Volume{Name: name, Mountpoint: mountpoint}, nil
}

// Launch creates and starts the app container.
//
// The container name is fixed to the app name, which is what bounds the
// deployment to a single running instance: a second launch of the same app
// fails with a name conflict instead of starting a second container.
//
// Parameters:
//   - ctx: Context for cancellation
//   - spec: The launch spec
//
// Returns:
//   - The container handle
//   - Error if creation or start fails (including a name conflict from an
//     existing instance)
func (p *DockerPlatform) Launch(ctx context.Context, spec LaunchSpec) (Container, error) {
	exposedPorts := nat.PortSet{}
	portBindings := nat.PortMap{}
	if spec.HostPort > 0 {
		containerPort := nat.Port(fmt.Sprintf("%d/tcp", spec.ContainerPort))
		exposedPorts[containerPort] = struct{}{}
		portBindings[containerPort] = []nat.PortBinding{
			{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", spec.HostPort)},
		}
	}

	labels := map[string]string{
		labelManaged: "true",
		labelGPU:     string(spec.GPU),
	}
	for k, v := range spec.Labels {
		labels[k] = v
	}

	mounts := make([]mount.Mount, 0, len(spec.Volumes))
	for target, vol := range spec.Volumes {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: vol.Mountpoint,
			Target: target,
		})
	}

	hostConfig := &container.HostConfig{
		Mounts:       mounts,
		PortBindings: portBindings,
		NetworkMode:  "bridge",
		Init:         boolPtr(true),
	}

	// A valid GPU tier requests all GPUs on the host; tier capacity
	// scheduling belongs to the hosting platform, not this client.
	if spec.GPU.Valid() {
		hostConfig.DeviceRequests = []container.DeviceRequest{
			{Driver: "nvidia", Count: -1, Capabilities: [][]string{{"gpu"}}},
		}
	}

	resp, err := p.client.ContainerCreate(
		ctx,
		&container.Config{
			Image:        spec.Image.Ref,
			Cmd:          spec.Cmd,
			ExposedPorts: exposedPorts,
			Labels:       labels,
		},
		hostConfig,
		nil, // Network config
		nil, // Platform config
		spec.Name,
	)
	if err != nil {
		return Container{}, fmt.Errorf("failed to create container %s (is another instance of this app running? try `comfydock down`): %w", spec.Name, err)
	}

	if err := p.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return Container{}, fmt.Errorf("failed to start container %s: %w", spec.Name, err)
	}

	logger.Info("Started container %s (%s)", spec.Name, shortID(resp.ID))
	return Container{ID: resp.ID, Name: spec.Name}, nil
}

// Stop gracefully stops the named app container.
func (p *DockerPlatform) Stop(ctx context.Context, name string) error {
	id, err := p.findContainer(ctx, name)
	if err != nil {
		return err
	}

	timeout := stopTimeoutSeconds
	if err := p.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}

	logger.Info("Stopped container %s (%s)", name, shortID(id))
	return nil
}

// Remove force-removes the named app container and its anonymous volumes.
// Managed volumes are host directories and are never touched here.
func (p *DockerPlatform) Remove(ctx context.Context, name string) error {
	id, err := p.findContainer(ctx, name)
	if err != nil {
		return err
	}

	if err := p.client.ContainerRemove(ctx, id, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}

	logger.Info("Removed container %s (%s)", name, shortID(id))
	return nil
}

// Logs streams the named app container's output to w.
//
// Container output is multiplexed when the container runs without a TTY;
// stdout and stderr are demultiplexed into the same writer, preserving
// interleaving order.
func (p *DockerPlatform) Logs(ctx context.Context, name string, w io.Writer, follow bool) error {
	id, err := p.findContainer(ctx, name)
	if err != nil {
		return err
	}

	reader, err := p.client.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
	})
	if err != nil {
		return fmt.Errorf("failed to stream logs of container %s: %w", name, err)
	}
	defer reader.Close()

	if _, err := stdcopy.StdCopy(w, w, reader); err != nil && err != io.EOF {
		return fmt.Errorf("failed to copy logs of container %s: %w", name, err)
	}
	return nil
}

// findContainer resolves an app container name to its ID.
func (p *DockerPlatform) findContainer(ctx context.Context, name string) (string, error) {
	containers, err := p.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		for _, n := range c.Names {
			if n == "/"+name || n == name {
				return c.ID, nil
			}
		}
	}
	return "", fmt.Errorf("no container found for app %s", name)
}

// buildContextTar packs the Dockerfile and context files into an in-memory
// tar stream for the daemon-side build.
func buildContextTar(spec ImageSpec) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	dockerfile := []byte(spec.Dockerfile())
	if err := tw.WriteHeader(&tar.Header{
		Name: "Dockerfile",
		Mode: 0o644,
		Size: int64(len(dockerfile)),
	}); err != nil {
		return nil, err
	}
	if _, err := tw.Write(dockerfile); err != nil {
		return nil, err
	}

	files := spec.ContextFiles()
	for _, name := range spec.contextNames() {
		data, err := os.ReadFile(files[name])
		if err != nil {
			return nil, fmt.Errorf("failed to read context file %s: %w", files[name], err)
		}
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(data)),
		}); err != nil {
			return nil, err
		}
		if _, err := tw.Write(data); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// drainBuildOutput consumes the daemon's JSON build stream, forwarding
// progress to the debug log and returning the built image ID when the
// stream reports one.
func drainBuildOutput(r io.Reader) (string, error) {
	dec := json.NewDecoder(r)
	var imageID string

	for {
		var msg struct {
			Stream string `json:"stream"`
			Error  string `json:"error"`
			Aux    struct {
				ID string `json:"ID"`
			} `json:"aux"`
		}
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("failed to read build output: %w", err)
		}
		if msg.Error != "" {
			return "", fmt.Errorf("%s", msg.Error)
		}
		if msg.Stream != "" {
			logger.Debug("build: %s", msg.Stream)
		}
		if msg.Aux.ID != "" {
			imageID = msg.Aux.ID
		}
	}

	return imageID, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func boolPtr(b bool) *bool { return &b }
