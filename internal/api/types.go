// Package api defines shared types used across the comfydock application.
//
// This package contains the core type definitions shared between the CLI
// commands, the workload registry, the build pipeline, and the sandbox
// platform layer. Keeping them in a leaf package avoids import cycles
// between the higher-level packages.
package api

import (
	"fmt"
	"sort"
	"strings"
)

// Workload identifies one of the supported ComfyUI workloads.
//
// The set of workloads is closed: every workload ships with a static
// specification (GPU tier, plugins, model manifest) registered at startup.
// Selecting a workload outside this set is a fatal configuration error.
type Workload string

const (
	// WorkloadACEStep runs the ACE-Step music generation models.
	WorkloadACEStep Workload = "ace-step"

	// WorkloadFlux runs the FLUX.1-schnell image generation models.
	WorkloadFlux Workload = "flux"

	// WorkloadKrita runs the model set for the Krita generative AI plugin.
	WorkloadKrita Workload = "krita"

	// WorkloadQwen runs the Qwen2.5-VL vision-language models.
	WorkloadQwen Workload = "qwen"

	// WorkloadWan runs the Wan2.1 image-to-video models.
	WorkloadWan Workload = "wan"
)

// Workloads returns all supported workloads in a stable order.
func Workloads() []Workload {
	return []Workload{
		WorkloadACEStep,
		WorkloadFlux,
		WorkloadKrita,
		WorkloadQwen,
		WorkloadWan,
	}
}

// ParseWorkload converts a user-supplied string into a Workload.
//
// The input is trimmed and lowercased before matching, so "FLUX " and
// "flux" select the same workload.
//
// Parameters:
//   - s: The raw workload name (typically from the APP environment variable)
//
// Returns:
//   - The matching Workload
//   - Error naming the valid workloads if the input is unknown
func ParseWorkload(s string) (Workload, error) {
	w := Workload(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Workloads() {
		if w == known {
			return w, nil
		}
	}

	names := make([]string, 0, len(Workloads()))
	for _, known := range Workloads() {
		names = append(names, string(known))
	}
	sort.Strings(names)
	return "", fmt.Errorf("unknown workload %q (valid workloads: %s)", s, strings.Join(names, ", "))
}

// GPUTier is the GPU class a workload is deployed on.
//
// The tier is recorded as a container label and used to decide whether the
// sandbox requests GPU devices for the workload container.
type GPUTier string

const (
	// GPUTierT4 is the entry-level inference tier.
	GPUTierT4 GPUTier = "T4"

	// GPUTierL40S is the mid-range generation tier.
	GPUTierL40S GPUTier = "L40S"

	// GPUTierA100_80GB is the large-model tier with 80GB of VRAM.
	GPUTierA100_80GB GPUTier = "A100-80GB"
)

// GPUTiers returns the known GPU tiers.
func GPUTiers() []GPUTier {
	return []GPUTier{GPUTierT4, GPUTierL40S, GPUTierA100_80GB}
}

// Valid reports whether the tier is one of the known GPU classes.
func (t GPUTier) Valid() bool {
	for _, known := range GPUTiers() {
		if t == known {
			return true
		}
	}
	return false
}

// WorkloadInfo is a summary of a workload spec for display purposes.
//
// It is produced by the workload registry and consumed by the ls and show
// commands.
type WorkloadInfo struct {
	// Workload is the workload identifier.
	Workload Workload

	// GPU is the GPU tier the workload runs on.
	GPU GPUTier

	// AppName is the deployed application name (also the image tag and
	// container name).
	AppName string

	// OutputVolume is the name of the generation output volume.
	OutputVolume string

	// CustomNodes is the number of third-party plugin nodes installed.
	CustomNodes int

	// ModelSources is the number of model artifacts downloaded.
	ModelSources int

	// Description is a one-line description of the workload.
	Description string
}
