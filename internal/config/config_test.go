package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatwidget.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv(CredentialEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv(CredentialEnv, "sk-env")

	path := writeConfig(t, `
model = "gpt-4o"
timeout = "45s"
debug = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, "sk-env", cfg.Credential)
}

func TestLoad_FileCredentialWinsOverEnv(t *testing.T) {
	t.Setenv(CredentialEnv, "sk-env")

	cfg, err := Load(writeConfig(t, `credential = "sk-file"`))
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.Credential)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, `modle = "typo"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Timeout = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Model = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Endpoint = ""
	require.Error(t, cfg.Validate())
}
