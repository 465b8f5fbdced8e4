package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "logs", cfg.OutDir)
	assert.Equal(t, " Yes", cfg.TokenA)
	assert.Equal(t, " No", cfg.TokenB)
	assert.Equal(t, 10, cfg.MinIdleSamples)
	assert.InDelta(t, 1e-6, cfg.SumTolerance, 0)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entrowatt.yaml")
	body := "model_path: /models/tiny.yaml\ntoken_a: \" Oui\"\nsession_note: balanced plan, AC\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/models/tiny.yaml", cfg.ModelPath)
	assert.Equal(t, " Oui", cfg.TokenA)
	assert.Equal(t, " No", cfg.TokenB, "unset keys keep defaults")
	assert.Equal(t, "balanced plan, AC", cfg.SessionNote)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entrowatt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model_path: /from/file\nout_dir: /from/file\n"), 0o644))

	t.Setenv(EnvModelPath, "/from/env")
	t.Setenv(EnvOutDir, "/from/env/out")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.ModelPath)
	assert.Equal(t, "/from/env/out", cfg.OutDir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":\t:::"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
