// Package workload defines the specifications of the supported ComfyUI
// workloads and the registry that holds them.
//
// Each workload is defined in its own file (acestep.go, flux.go, krita.go,
// qwen.go, wan.go) as pure data: the GPU tier it runs on, its application
// and output volume names, the extra system and Python packages it needs,
// the custom nodes it installs, and the literal manifest of model weights
// it downloads. The build pipeline consumes this data; workloads carry no
// behavior of their own.
package workload

import (
	"fmt"

	"github.com/comfyops/comfydock/internal/api"
)

// SourceKind identifies how a model artifact is fetched.
type SourceKind string

const (
	// SourceHubFile downloads a single named file from a hub repository.
	SourceHubFile SourceKind = "hub-file"

	// SourceHubSnapshot downloads a filtered snapshot of a hub repository.
	SourceHubSnapshot SourceKind = "hub-snapshot"

	// SourceURL downloads an arbitrary URL.
	SourceURL SourceKind = "url"
)

// ModelSource describes one model artifact in a workload's download
// manifest: where it comes from and where in the model tree it is linked.
type ModelSource struct {
	// Kind selects the download helper used for this source.
	Kind SourceKind

	// Repo is the hub repository (hub-file and hub-snapshot kinds).
	Repo string

	// File is the path of the file inside the repository (hub-file kind).
	File string

	// URL is the download location (url kind). Credential query parameters
	// are appended from TokenKey at download time, never stored here.
	URL string

	// Dir is the destination subdirectory, relative to the ComfyUI models
	// root, the symbolic link is created in (e.g. "text_encoders",
	// "Qwen/Qwen/Qwen3-14B").
	Dir string

	// SaveAs renames the link (hub-file kind). Defaults to the base name
	// of File.
	SaveAs string

	// Filename names the cached file and the link (url kind). Also used as
	// the link name for hub-snapshot kind.
	Filename string

	// AllowPatterns and IgnorePatterns filter snapshot downloads.
	AllowPatterns  []string
	IgnorePatterns []string

	// TokenKey names the credential in the token map required for this
	// download ("HF_TOKEN", "CIVITAI_TOKEN"). Empty for anonymous access.
	TokenKey string
}

// Spec is the complete, static specification of one workload.
//
// A Spec only ever adds to the base pipeline: the packages, nodes, and
// model sources listed here are appended after the base image steps and
// never replace them.
type Spec struct {
	// Workload is the identifier this spec is registered under.
	Workload api.Workload

	// Description is a one-line description of the workload.
	Description string

	// GPU is the GPU tier the workload container requests.
	GPU api.GPUTier

	// AppName names the application: it is used as the image tag and the
	// container name. Unique across workloads.
	AppName string

	// OutputVolume names the persistent volume that receives generation
	// outputs. Unique across workloads.
	OutputVolume string

	// AptPackages are extra system packages installed on top of the base
	// image's packages.
	AptPackages []string

	// PipPackages are extra Python packages installed alongside the apt
	// packages, before ComfyUI nodes.
	PipPackages []string

	// PostInstallPip are version-pinned packages installed after the
	// custom nodes, to fix up dependencies the node installs downgraded or
	// replaced.
	PostInstallPip []string

	// CustomNodes are the ComfyUI registry identifiers of the third-party
	// nodes the workload installs.
	CustomNodes []string

	// Models is the ordered download manifest for the workload.
	Models []ModelSource
}

// Validate checks that the spec is complete enough to register.
func (s *Spec) Validate() error {
	if s.Workload == "" {
		return fmt.Errorf("workload spec must name its workload")
	}
	if s.AppName == "" {
		return fmt.Errorf("workload %s must have an app name", s.Workload)
	}
	if s.OutputVolume == "" {
		return fmt.Errorf("workload %s must have an output volume name", s.Workload)
	}
	if !s.GPU.Valid() {
		return fmt.Errorf("workload %s has unknown GPU tier %q", s.Workload, s.GPU)
	}
	for i, m := range s.Models {
		switch m.Kind {
		case SourceHubFile:
			if m.Repo == "" || m.File == "" {
				return fmt.Errorf("workload %s model %d: hub file source requires repo and file", s.Workload, i)
			}
		case SourceHubSnapshot:
			if m.Repo == "" || m.Filename == "" {
				return fmt.Errorf("workload %s model %d: hub snapshot source requires repo and filename", s.Workload, i)
			}
		case SourceURL:
			if m.URL == "" || m.Filename == "" {
				return fmt.Errorf("workload %s model %d: url source requires url and filename", s.Workload, i)
			}
		default:
			return fmt.Errorf("workload %s model %d: unknown source kind %q", s.Workload, i, m.Kind)
		}
	}
	return nil
}

// Info returns the display summary of the spec.
func (s *Spec) Info() api.WorkloadInfo {
	return api.WorkloadInfo{
		Workload:     s.Workload,
		GPU:          s.GPU,
		AppName:      s.AppName,
		OutputVolume: s.OutputVolume,
		CustomNodes:  len(s.CustomNodes),
		ModelSources: len(s.Models),
		Description:  s.Description,
	}
}
