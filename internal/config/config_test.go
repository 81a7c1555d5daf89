package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv records the original value for restoration; the unset is
	// what exercises the defaults, since a set-but-empty variable does not
	// fall back to envDefault.
	for _, key := range []string{"APP", "COMFYDOCK_DATA_DIR", "COMFYDOCK_PORT",
		"COMFYDOCK_BACKEND_PORT", "COMFYDOCK_REDOWNLOAD", "COMFYDOCK_TOKENS_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Empty(t, cfg.App)
	assert.Equal(t, filepath.Join(home, DefaultConfigDirName), cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, VolumesDirName), cfg.VolumesDir())
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 18000, cfg.BackendPort)
	assert.Equal(t, "tokens.json", cfg.TokensFile)
	assert.False(t, cfg.Redownload)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP", "flux")
	t.Setenv("COMFYDOCK_DATA_DIR", "/srv/comfydock")
	t.Setenv("COMFYDOCK_PORT", "9000")
	t.Setenv("COMFYDOCK_REDOWNLOAD", "true")
	t.Setenv("COMFYDOCK_TOKENS_FILE", "/etc/comfydock/tokens.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "flux", cfg.App)
	assert.Equal(t, "/srv/comfydock", cfg.DataDir)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Redownload)
	assert.Equal(t, "/etc/comfydock/tokens.json", cfg.TokensFile)
}

func TestLoadTokens(t *testing.T) {
	t.Run("missing file yields empty map", func(t *testing.T) {
		tokens, err := LoadTokens(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)
		require.NotNil(t, tokens)
		assert.Empty(t, tokens)
	})

	t.Run("reads credentials", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"HF_TOKEN":"hf_x","CIVITAI_TOKEN":"civ_y"}`), 0o600))

		tokens, err := LoadTokens(path)
		require.NoError(t, err)
		assert.Equal(t, "hf_x", tokens["HF_TOKEN"])
		assert.Equal(t, "civ_y", tokens["CIVITAI_TOKEN"])
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, os.WriteFile(path, []byte("HF_TOKEN=hf_x"), 0o600))

		_, err := LoadTokens(path)
		assert.Error(t, err)
	})
}

func TestComfyLayout(t *testing.T) {
	assert.Equal(t, "/root/comfy/ComfyUI/models", ComfyModelsDir())
	assert.Equal(t, "/root/comfy/ComfyUI/output", ComfyOutputDir())
}
