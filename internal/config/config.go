// Package config provides configuration management for comfydock.
//
// Configuration comes from three places, in increasing precedence:
//   - Built-in defaults (paths under ~/.comfydock, fixed ComfyUI layout)
//   - A .env file in the working directory, when present
//   - Process environment variables
//
// The single required input is the APP variable selecting which workload to
// deploy; its absence is a fatal configuration error surfaced before any
// image build or network step runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// DefaultConfigDirName is the per-user directory holding all comfydock
	// state: managed volumes and image build contexts.
	DefaultConfigDirName = ".comfydock"

	// VolumesDirName is the subdirectory of the data dir that holds the
	// managed volumes (model cache, model trees, generation outputs).
	VolumesDirName = "volumes"

	// CacheVolumeName is the name of the shared model download cache volume.
	// It is shared across all workloads so a model downloaded for one build
	// is never re-fetched for another.
	CacheVolumeName = "hf-hub-cache"

	// ComfyDir is the ComfyUI installation directory inside the image.
	ComfyDir = "/root/comfy/ComfyUI"

	// ComfyPort is the port the ComfyUI server listens on inside the
	// container.
	ComfyPort = 8000

	// StartupTimeout is how long the web endpoint waits for ComfyUI to
	// start accepting connections before the deployment is reported
	// unhealthy.
	StartupTimeout = 60 * time.Second

	// MaxConcurrentInputs bounds concurrent requests through the web
	// endpoint. The ComfyUI frontend issues several API calls concurrently
	// during startup, so this must be comfortably above one.
	MaxConcurrentInputs = 10
)

// ComfyModelsDir returns the model directory tree inside the image.
func ComfyModelsDir() string { return ComfyDir + "/models" }

// ComfyOutputDir returns the generation output directory inside the image.
func ComfyOutputDir() string { return ComfyDir + "/output" }

// Config represents the complete application configuration.
type Config struct {
	// App is the raw workload selector. Required for build and up.
	App string `env:"APP"`

	// DataDir is the root directory for managed volumes and build state.
	// Defaults to ~/.comfydock.
	DataDir string `env:"COMFYDOCK_DATA_DIR"`

	// Port is the host port the web endpoint is served on.
	Port int `env:"COMFYDOCK_PORT" envDefault:"8000"`

	// BackendPort is the host port the app container's ComfyUI port is
	// published on. The web endpoint proxies Port to BackendPort.
	BackendPort int `env:"COMFYDOCK_BACKEND_PORT" envDefault:"18000"`

	// Redownload forces every model download to bypass the cache.
	Redownload bool `env:"COMFYDOCK_REDOWNLOAD"`

	// TokensFile is the path to the JSON credential file used for
	// authenticated model downloads.
	TokensFile string `env:"COMFYDOCK_TOKENS_FILE" envDefault:"tokens.json"`
}

// Load builds the configuration from the environment.
//
// A .env file in the working directory is loaded first when present;
// a missing .env file is not an error. Real environment variables always
// win over .env entries.
//
// Returns:
//   - The parsed configuration with defaults applied
//   - Error if the environment cannot be parsed or the home directory is
//     unavailable
func Load() (*Config, error) {
	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, DefaultConfigDirName)
	}

	return &cfg, nil
}

// VolumesDir returns the directory under which managed volumes live.
func (c *Config) VolumesDir() string {
	return filepath.Join(c.DataDir, VolumesDirName)
}

// LoadTokens reads the credential file mapping credential names (for
// example "HF_TOKEN", "CIVITAI_TOKEN") to secret strings.
//
// The file is read once at build time and the map is threaded through to
// the download steps that need authenticated access. A missing file yields
// an empty map: it only becomes an error when a workload manifest actually
// references a credential (the manifest runner reports which one).
//
// Parameters:
//   - path: Path to the tokens JSON file
//
// Returns:
//   - The credential map (never nil)
//   - Error if the file exists but cannot be read or parsed
func LoadTokens(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read tokens file %s: %w", path, err)
	}

	tokens := map[string]string{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse tokens file %s: %w", path, err)
	}

	return tokens, nil
}
