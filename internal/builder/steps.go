package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/comfyops/comfydock/internal/config"
	"github.com/comfyops/comfydock/internal/hub"
	"github.com/comfyops/comfydock/internal/logger"
	"github.com/comfyops/comfydock/internal/sandbox"
	"github.com/comfyops/comfydock/internal/workload"
)

// baseImageRef is the Python base image every workload builds on.
const baseImageRef = "python:3.11-slim-bookworm"

// tokensImagePath is where the credential file is copied inside the image.
const tokensImagePath = "/root/tokens.json"

// BaseImageSpec returns the shared base image every workload starts from:
// Python 3.11, the packages ComfyUI installation needs, and a ComfyUI
// install via comfy-cli. Workload steps only ever append to this.
func BaseImageSpec() sandbox.ImageSpec {
	img := sandbox.NewImageSpec(baseImageRef)
	img = img.AptInstall("git")  // comfy-cli clones ComfyUI and nodes
	img = img.AptInstall("wget") // plain URL fetches inside the container
	img = img.PipInstall("fastapi[standard]==0.115.4")
	img = img.PipInstall("comfy-cli")
	img = img.PipInstall("huggingface_hub[hf_transfer]")
	img = img.RunCommands("comfy --skip-prompt install --fast-deps --nvidia")
	return img
}

// baseImage seeds the pipeline state with the shared base image.
func (b *Builder) baseImage(_ context.Context, st *state) error {
	st.image = BaseImageSpec()
	return nil
}

// systemPackages appends the workload's extra apt and pip packages.
func (b *Builder) systemPackages(_ context.Context, st *state) error {
	if len(b.spec.AptPackages) > 0 {
		st.image = st.image.AptInstall(b.spec.AptPackages...)
	}
	if len(b.spec.PipPackages) > 0 {
		st.image = st.image.PipInstall(b.spec.PipPackages...)
	}
	return nil
}

// customNodes installs the workload's ComfyUI nodes via comfy-cli.
func (b *Builder) customNodes(_ context.Context, st *state) error {
	if len(b.spec.CustomNodes) == 0 {
		return nil
	}
	st.image = st.image.RunCommands(
		"comfy node install --fast-deps " + strings.Join(b.spec.CustomNodes, " "))
	return nil
}

// postInstall re-pins packages the node installs downgraded or replaced.
// Running after customNodes is what makes the pins stick.
func (b *Builder) postInstall(_ context.Context, st *state) error {
	if len(b.spec.PostInstallPip) > 0 {
		st.image = st.image.PipInstall(b.spec.PostInstallPip...)
	}
	return nil
}

// copyFiles copies local support files into the image. Today that is the
// credential file, so authenticated downloads also work from inside the
// container; a missing file is skipped, not an error.
func (b *Builder) copyFiles(_ context.Context, st *state) error {
	if b.opts.TokensFile == "" {
		return nil
	}
	if _, err := os.Stat(b.opts.TokensFile); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No tokens file at %s, skipping copy-in", b.opts.TokensFile)
			return nil
		}
		return fmt.Errorf("failed to stat tokens file %s: %w", b.opts.TokensFile, err)
	}
	st.image = st.image.CopyFile(b.opts.TokensFile, tokensImagePath)
	return nil
}

// downloadModels ensures the shared cache volume and the workload's model
// volume, then runs the workload's download manifest against them.
//
// Every artifact lands in the cache volume and is linked from the model
// volume, which is mounted at the ComfyUI models directory. Downloads run
// sequentially in manifest order; the first failure aborts the step.
func (b *Builder) downloadModels(ctx context.Context, st *state) error {
	st.image = st.image.WithEnv("HF_HUB_ENABLE_HF_TRANSFER", "1")

	cache, err := b.platform.EnsureVolume(ctx, config.CacheVolumeName)
	if err != nil {
		return err
	}

	models, err := b.platform.EnsureVolume(ctx, ModelsVolumeName(b.spec))
	if err != nil {
		return err
	}

	for i, src := range b.spec.Models {
		logger.Info("Model %d/%d: %s", i+1, len(b.spec.Models), sourceLabel(src))
		if err := b.downloadModel(ctx, src, cache, models); err != nil {
			return err
		}
	}

	// The cache is mounted same-path so the links in the model tree
	// resolve inside the container exactly as they do on the host.
	st.volumes[cache.Mountpoint] = cache
	st.volumes[config.ComfyModelsDir()] = models
	return nil
}

// downloadModel fetches one manifest entry and links it into the model tree.
func (b *Builder) downloadModel(ctx context.Context, src workload.ModelSource, cache, models sandbox.Volume) error {
	saveDir := filepath.Join(models.Mountpoint, filepath.FromSlash(src.Dir))
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory %s: %w", saveDir, err)
	}

	token, err := b.lookupToken(src)
	if err != nil {
		return err
	}

	switch src.Kind {
	case workload.SourceHubFile:
		_, err = b.fetcher.DownloadFile(ctx, hub.FileRequest{
			Repo:     src.Repo,
			File:     src.File,
			CacheDir: cache.Mountpoint,
			SaveDir:  saveDir,
			SaveAs:   src.SaveAs,
			Token:    token,
			Force:    b.opts.Redownload,
		})
	case workload.SourceHubSnapshot:
		_, err = b.fetcher.DownloadSnapshot(ctx, hub.SnapshotRequest{
			Repo:           src.Repo,
			DirName:        src.Filename,
			CacheDir:       cache.Mountpoint,
			SaveDir:        saveDir,
			AllowPatterns:  src.AllowPatterns,
			IgnorePatterns: src.IgnorePatterns,
			Token:          token,
			Force:          b.opts.Redownload,
		})
	case workload.SourceURL:
		_, err = b.fetcher.DownloadURL(ctx, hub.URLRequest{
			URL:      tokenizedURL(src.URL, token),
			Filename: src.Filename,
			CacheDir: cache.Mountpoint,
			SaveDir:  saveDir,
			Force:    b.opts.Redownload,
		})
	default:
		err = fmt.Errorf("unknown model source kind %q", src.Kind)
	}
	return err
}

// lookupToken resolves a manifest entry's credential. A referenced
// credential missing from the token map fails the build with the credential
// named, before any network traffic for the entry.
func (b *Builder) lookupToken(src workload.ModelSource) (string, error) {
	if src.TokenKey == "" {
		return "", nil
	}
	token, ok := b.tokens[src.TokenKey]
	if !ok || token == "" {
		return "", fmt.Errorf("workload %s requires credential %s in tokens file %s",
			b.spec.Workload, src.TokenKey, b.opts.TokensFile)
	}
	return token, nil
}

// outputVolume ensures the workload's generation output volume and mounts
// it at the ComfyUI output directory.
func (b *Builder) outputVolume(ctx context.Context, st *state) error {
	out, err := b.platform.EnsureVolume(ctx, b.spec.OutputVolume)
	if err != nil {
		return err
	}
	st.volumes[config.ComfyOutputDir()] = out
	return nil
}

// tokenizedURL appends a credential query parameter to a download URL.
// Civitai passes tokens in the query string rather than a header.
func tokenizedURL(rawURL, token string) string {
	if token == "" {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "token=" + token
}

// sourceLabel describes a manifest entry for log output.
func sourceLabel(src workload.ModelSource) string {
	switch src.Kind {
	case workload.SourceHubFile:
		return fmt.Sprintf("%s/%s", src.Repo, src.File)
	case workload.SourceHubSnapshot:
		return fmt.Sprintf("%s (snapshot)", src.Repo)
	case workload.SourceURL:
		return src.Filename
	default:
		return string(src.Kind)
	}
}
