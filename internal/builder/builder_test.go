package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyops/comfydock/internal/api"
	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/hub"
	"github.com/comfyops/comfydock/internal/sandbox"
	"github.com/comfyops/comfydock/internal/workload"
)

// fakePlatform records the pipeline's platform calls and backs volumes with
// temp directories.
type fakePlatform struct {
	root string

	builtSpec   *sandbox.ImageSpec
	builtOpts   sandbox.BuildOptions
	volumes     []string
	buildCalled bool
}

func (p *fakePlatform) BuildImage(_ context.Context, spec sandbox.ImageSpec, opts sandbox.BuildOptions) (sandbox.Image, error) {
	p.buildCalled = true
	p.builtSpec = &spec
	p.builtOpts = opts
	return sandbox.Image{Ref: opts.Tag, ID: "sha256:fake"}, nil
}

func (p *fakePlatform) EnsureVolume(_ context.Context, name string) (sandbox.Volume, error) {
	p.volumes = append(p.volumes, name)
	mountpoint := filepath.Join(p.root, name)
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return sandbox.Volume{}, err
	}
	return sandbox.Volume{Name: name, Mountpoint: mountpoint}, nil
}

func (p *fakePlatform) Launch(context.Context, sandbox.LaunchSpec) (sandbox.Container, error) {
	return sandbox.Container{}, nil
}
func (p *fakePlatform) Stop(context.Context, string) error                  { return nil }
func (p *fakePlatform) Remove(context.Context, string) error                { return nil }
func (p *fakePlatform) Logs(context.Context, string, io.Writer, bool) error { return nil }

// fakeFetcher records download requests instead of touching the network.
type fakeFetcher struct {
	files     []hub.FileRequest
	snapshots []hub.SnapshotRequest
	urls      []hub.URLRequest
	err       error
}

func (f *fakeFetcher) DownloadFile(_ context.Context, req hub.FileRequest) (string, error) {
	f.files = append(f.files, req)
	return filepath.Join(req.CacheDir, req.Repo, req.File), f.err
}

func (f *fakeFetcher) DownloadSnapshot(_ context.Context, req hub.SnapshotRequest) (string, error) {
	f.snapshots = append(f.snapshots, req)
	return filepath.Join(req.CacheDir, req.Repo), f.err
}

func (f *fakeFetcher) DownloadURL(_ context.Context, req hub.URLRequest) (string, error) {
	f.urls = append(f.urls, req)
	return filepath.Join(req.CacheDir, req.Filename), f.err
}

// allTokens satisfies every credentialed manifest entry.
var allTokens = map[string]string{
	"HF_TOKEN":      "hf_test",
	"CIVITAI_TOKEN": "civ_test",
}

func buildWorkload(t *testing.T, w api.Workload, tokens map[string]string, opts Options) (*Result, *fakePlatform, *fakeFetcher, error) {
	t.Helper()
	spec, err := workload.Get(w)
	require.NoError(t, err)

	platform := &fakePlatform{root: t.TempDir()}
	fetcher := &fakeFetcher{}
	result, err := New(platform, fetcher, spec, tokens, opts).Build(context.Background())
	return result, platform, fetcher, err
}

// Every workload image must start with the exact base pipeline; workload
// data can only append to it.
func TestWorkloadImagesShareBasePrefix(t *testing.T) {
	base := BaseImageSpec().Instructions()

	for _, w := range api.Workloads() {
		t.Run(string(w), func(t *testing.T) {
			result, _, _, err := buildWorkload(t, w, allTokens, Options{})
			require.NoError(t, err)

			got := result.ImageSpec.Instructions()
			require.GreaterOrEqual(t, len(got), len(base))
			assert.Equal(t, base, got[:len(base)], "base image steps must be an unchanged prefix")
			assert.Equal(t, "python:3.11-slim-bookworm", result.ImageSpec.From)
		})
	}
}

func TestBuildVolumeLayout(t *testing.T) {
	result, platform, _, err := buildWorkload(t, api.WorkloadQwen, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{config.CacheVolumeName, "qwen-comfyui-models", "qwen-comfyui-output"},
		platform.volumes)

	// The cache volume mounts same-path so model tree links resolve inside
	// the container; models and outputs mount at the ComfyUI layout.
	cache := result.Volumes[filepath.Join(platform.root, config.CacheVolumeName)]
	assert.Equal(t, config.CacheVolumeName, cache.Name)
	assert.Equal(t, "qwen-comfyui-models", result.Volumes[config.ComfyModelsDir()].Name)
	assert.Equal(t, "qwen-comfyui-output", result.Volumes[config.ComfyOutputDir()].Name)
	assert.Len(t, result.Volumes, 3)
}

func TestBuildCreatesModelDirectories(t *testing.T) {
	_, platform, fetcher, err := buildWorkload(t, api.WorkloadWan, allTokens, Options{})
	require.NoError(t, err)

	modelsRoot := filepath.Join(platform.root, "wan-comfyui-models")
	for _, dir := range []string{"text_encoders", "vae", "clip_vision", "diffusion_models"} {
		assert.DirExists(t, filepath.Join(modelsRoot, dir))
	}

	// Each download is told to link into its manifest directory.
	require.Len(t, fetcher.files, 3)
	require.Len(t, fetcher.urls, 1)
	assert.Equal(t, filepath.Join(modelsRoot, "diffusion_models"), fetcher.urls[0].SaveDir)
}

func TestBuildAppendsURLToken(t *testing.T) {
	_, _, fetcher, err := buildWorkload(t, api.WorkloadWan, allTokens, Options{})
	require.NoError(t, err)

	require.Len(t, fetcher.urls, 1)
	url := fetcher.urls[0].URL
	assert.Contains(t, url, "&token=civ_test", "credential is appended at download time")
	assert.Equal(t, "liveWallpaperFast_i2v14B720P.gguf", fetcher.urls[0].Filename)
}

func TestBuildPassesHubToken(t *testing.T) {
	_, _, fetcher, err := buildWorkload(t, api.WorkloadFlux, allTokens, Options{})
	require.NoError(t, err)

	var gated, anonymous int
	for _, req := range fetcher.files {
		if req.Token == "hf_test" {
			gated++
		} else {
			assert.Empty(t, req.Token)
			anonymous++
		}
	}
	assert.Equal(t, 1, gated, "only the gated checkpoint carries the token")
	assert.Equal(t, 3, anonymous)
}

func TestBuildMissingCredentialFailsNamingIt(t *testing.T) {
	_, platform, fetcher, err := buildWorkload(t, api.WorkloadFlux, nil, Options{TokensFile: "tokens.json"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "HF_TOKEN")
	assert.Contains(t, err.Error(), "tokens.json")
	assert.False(t, platform.buildCalled, "image must not be built after a failed step")

	// The three anonymous downloads before the gated one still ran; the
	// gated entry itself never produced a request.
	assert.Len(t, fetcher.files, 3)
}

func TestBuildRedownloadForcesEveryDownload(t *testing.T) {
	_, platform, fetcher, err := buildWorkload(t, api.WorkloadACEStep, nil, Options{Redownload: true})
	require.NoError(t, err)

	require.NotEmpty(t, fetcher.snapshots)
	for _, req := range fetcher.snapshots {
		assert.True(t, req.Force)
	}
	for _, req := range fetcher.files {
		assert.True(t, req.Force)
	}
	assert.True(t, platform.builtOpts.NoCache)
}

func TestBuildFailedDownloadNamesTheStep(t *testing.T) {
	spec, err := workload.Get(api.WorkloadQwen)
	require.NoError(t, err)

	platform := &fakePlatform{root: t.TempDir()}
	fetcher := &fakeFetcher{err: fmt.Errorf("connection reset")}
	_, err = New(platform, fetcher, spec, nil, Options{}).Build(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "model download"`)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, platform.buildCalled)
	assert.Len(t, fetcher.files, 1, "downloads stop at the first failure")
}

func TestBuildCopiesTokensFileWhenPresent(t *testing.T) {
	tokensFile := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(tokensFile, []byte(`{"HF_TOKEN":"hf_test"}`), 0o600))

	spec, err := workload.Get(api.WorkloadFlux)
	require.NoError(t, err)

	platform := &fakePlatform{root: t.TempDir()}
	result, err := New(platform, &fakeFetcher{}, spec, allTokens, Options{TokensFile: tokensFile}).
		Build(context.Background())
	require.NoError(t, err)

	files := result.ImageSpec.ContextFiles()
	assert.Equal(t, tokensFile, files["tokens.json"])
}

func TestBuildSkipsMissingTokensFile(t *testing.T) {
	result, _, _, err := buildWorkload(t, api.WorkloadQwen, nil,
		Options{TokensFile: filepath.Join(t.TempDir(), "absent.json")})
	require.NoError(t, err)
	assert.Empty(t, result.ImageSpec.ContextFiles())
}

// The post-install pin must land after the node installs it fixes up.
func TestPostInstallRunsAfterCustomNodes(t *testing.T) {
	result, _, _, err := buildWorkload(t, api.WorkloadACEStep, nil, Options{})
	require.NoError(t, err)

	instructions := result.ImageSpec.Instructions()
	nodeIdx, pinIdx := -1, -1
	for i, in := range instructions {
		if strings.Contains(in, "comfy node install") {
			nodeIdx = i
		}
		if strings.Contains(in, "numpy==2.2") {
			pinIdx = i
		}
	}
	require.NotEqual(t, -1, nodeIdx)
	require.NotEqual(t, -1, pinIdx)
	assert.Greater(t, pinIdx, nodeIdx)
}

func TestBuildTagsImageWithAppName(t *testing.T) {
	result, platform, _, err := buildWorkload(t, api.WorkloadKrita, allTokens, Options{})
	require.NoError(t, err)

	assert.Equal(t, "krita-comfyui:latest", platform.builtOpts.Tag)
	assert.Equal(t, "krita-comfyui:latest", result.Image.Ref)
	assert.Equal(t, api.GPUTierT4, result.GPU)
}

func TestLaunchCommand(t *testing.T) {
	assert.Equal(t,
		[]string{"comfy", "launch", "--", "--listen", "0.0.0.0", "--port", "8000"},
		LaunchCommand())
}
