package sandbox

import (
	"fmt"
	"sort"
	"strings"
)

// ImageSpec is an immutable description of container image contents.
//
// Every builder method returns a new ImageSpec derived from the receiver;
// the receiver is never mutated. This gives pipeline steps value semantics:
// a step holds the image it was given and appends to a copy, so no step can
// disturb the layers produced by earlier steps.
//
// The spec is materialized into a real image by Platform.BuildImage, which
// renders it as a Dockerfile plus a build context.
type ImageSpec struct {
	// From is the base image reference.
	From string

	instructions []string
	contextFiles map[string]string // context name -> host path
}

// NewImageSpec starts an image from a base image reference.
func NewImageSpec(from string) ImageSpec {
	return ImageSpec{From: from}
}

// clone returns a deep copy so appends never share backing storage with
// the receiver.
func (s ImageSpec) clone() ImageSpec {
	out := ImageSpec{From: s.From}
	out.instructions = make([]string, len(s.instructions))
	copy(out.instructions, s.instructions)
	out.contextFiles = make(map[string]string, len(s.contextFiles))
	for k, v := range s.contextFiles {
		out.contextFiles[k] = v
	}
	return out
}

// AptInstall returns a new spec with system packages installed.
func (s ImageSpec) AptInstall(packages ...string) ImageSpec {
	out := s.clone()
	out.instructions = append(out.instructions,
		fmt.Sprintf("RUN apt-get update && apt-get install -y --no-install-recommends %s && rm -rf /var/lib/apt/lists/*",
			strings.Join(packages, " ")))
	return out
}

// PipInstall returns a new spec with Python packages installed.
func (s ImageSpec) PipInstall(packages ...string) ImageSpec {
	out := s.clone()
	quoted := make([]string, len(packages))
	for i, p := range packages {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	out.instructions = append(out.instructions,
		"RUN pip install --no-cache-dir "+strings.Join(quoted, " "))
	return out
}

// RunCommands returns a new spec with shell commands run as image layers.
func (s ImageSpec) RunCommands(commands ...string) ImageSpec {
	out := s.clone()
	for _, cmd := range commands {
		out.instructions = append(out.instructions, "RUN "+cmd)
	}
	return out
}

// WithEnv returns a new spec with an environment variable set.
func (s ImageSpec) WithEnv(key, value string) ImageSpec {
	out := s.clone()
	out.instructions = append(out.instructions, fmt.Sprintf("ENV %s=%s", key, value))
	return out
}

// CopyFile returns a new spec that copies a local file into the image.
//
// The host file is added to the build context under its context name (the
// last path element of dest) and copied to dest inside the image.
func (s ImageSpec) CopyFile(hostPath, dest string) ImageSpec {
	out := s.clone()
	name := dest[strings.LastIndex(dest, "/")+1:]
	out.contextFiles[name] = hostPath
	out.instructions = append(out.instructions, fmt.Sprintf("COPY %s %s", name, dest))
	return out
}

// Instructions returns the ordered Dockerfile instructions after FROM.
func (s ImageSpec) Instructions() []string {
	out := make([]string, len(s.instructions))
	copy(out, s.instructions)
	return out
}

// ContextFiles returns the build context files as name -> host path.
func (s ImageSpec) ContextFiles() map[string]string {
	out := make(map[string]string, len(s.contextFiles))
	for k, v := range s.contextFiles {
		out[k] = v
	}
	return out
}

// Dockerfile renders the spec as a Dockerfile.
func (s ImageSpec) Dockerfile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", s.From)
	for _, in := range s.instructions {
		b.WriteString(in)
		b.WriteByte('\n')
	}
	return b.String()
}

// contextNames returns the context file names in a stable order.
func (s ImageSpec) contextNames() []string {
	names := make([]string, 0, len(s.contextFiles))
	for name := range s.contextFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
