package hub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCreateLink(t *testing.T) {
	t.Run("creates missing link", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "cache", "weights")
		writeFile(t, target, "x")

		link := filepath.Join(dir, "weights")
		require.NoError(t, createLink(target, link))

		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	})

	t.Run("idempotent for same target", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "cache", "weights")
		writeFile(t, target, "x")

		link := filepath.Join(dir, "weights")
		require.NoError(t, createLink(target, link))
		assert.NoError(t, createLink(target, link))
	})

	t.Run("repairs stale link", func(t *testing.T) {
		dir := t.TempDir()
		gone := filepath.Join(dir, "old-cache", "weights")
		link := filepath.Join(dir, "weights")
		require.NoError(t, os.Symlink(gone, link))

		target := filepath.Join(dir, "cache", "weights")
		writeFile(t, target, "x")
		require.NoError(t, createLink(target, link))

		got, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	})

	t.Run("refuses different live target", func(t *testing.T) {
		dir := t.TempDir()
		other := filepath.Join(dir, "cache", "other")
		writeFile(t, other, "y")
		link := filepath.Join(dir, "weights")
		require.NoError(t, os.Symlink(other, link))

		target := filepath.Join(dir, "cache", "weights")
		writeFile(t, target, "x")
		assert.Error(t, createLink(target, link))
	})

	t.Run("refuses regular file", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "weights")
		writeFile(t, link, "not a link")

		target := filepath.Join(dir, "cache", "weights")
		writeFile(t, target, "x")
		assert.Error(t, createLink(target, link))
	})

	t.Run("requires existing parent directory", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "cache", "weights")
		writeFile(t, target, "x")

		assert.Error(t, createLink(target, filepath.Join(dir, "missing", "weights")))
	})
}
