package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageSpecValueSemantics(t *testing.T) {
	base := NewImageSpec("python:3.11-slim-bookworm").AptInstall("git")

	// Deriving two specs from the same base must not let either see the
	// other's additions, and must leave the base untouched.
	a := base.PipInstall("sounddevice")
	b := base.AptInstall("libgl1")

	assert.Len(t, base.Instructions(), 1)
	assert.Len(t, a.Instructions(), 2)
	assert.Len(t, b.Instructions(), 2)
	assert.NotEqual(t, a.Instructions()[1], b.Instructions()[1])
}

func TestImageSpecAppendsPreserveOrder(t *testing.T) {
	spec := NewImageSpec("python:3.11-slim-bookworm").
		AptInstall("git").
		PipInstall("comfy-cli").
		RunCommands("comfy --skip-prompt install --fast-deps --nvidia").
		WithEnv("HF_HUB_ENABLE_HF_TRANSFER", "1")

	in := spec.Instructions()
	require.Len(t, in, 4)
	assert.Contains(t, in[0], "apt-get install")
	assert.Contains(t, in[1], "pip install")
	assert.True(t, strings.HasPrefix(in[2], "RUN comfy"))
	assert.Equal(t, "ENV HF_HUB_ENABLE_HF_TRANSFER=1", in[3])
}

func TestImageSpecPipInstallQuotesExtras(t *testing.T) {
	spec := NewImageSpec("x").PipInstall("fastapi[standard]==0.115.4", "comfy-cli")

	// Bracketed extras must survive the shell.
	assert.Contains(t, spec.Instructions()[0], `"fastapi[standard]==0.115.4"`)
	assert.Contains(t, spec.Instructions()[0], `"comfy-cli"`)
}

func TestImageSpecCopyFile(t *testing.T) {
	spec := NewImageSpec("x").CopyFile("/home/user/tokens.json", "/root/tokens.json")

	files := spec.ContextFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "/home/user/tokens.json", files["tokens.json"])
	assert.Contains(t, spec.Instructions()[0], "COPY tokens.json /root/tokens.json")
}

func TestImageSpecDockerfile(t *testing.T) {
	spec := NewImageSpec("python:3.11-slim-bookworm").
		AptInstall("git", "wget").
		WithEnv("A", "1")

	rendered := spec.Dockerfile()
	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "FROM python:3.11-slim-bookworm", lines[0])
	assert.Contains(t, lines[1], "git wget")
	assert.Equal(t, "ENV A=1", lines[2])
}
