package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".chibi", "xmpp-bridge.json"), GetConfigPath())
}

func TestGetConfigPath_Override(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/chibi/xmpp.yaml")

	assert.Equal(t, "/etc/chibi/xmpp.yaml", GetConfigPath())
}

func TestLoadConfig_FromOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// host binary
		"host_binary": "/usr/local/bin/chibi",
		"chibi_dir": "`+dir+`",
	}`), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/chibi", cfg.HostBinary)
	assert.Equal(t, dir, cfg.ChibiDir)
}

func TestFormatVersion(t *testing.T) {
	oldVersion, oldCommit := version, gitCommit
	t.Cleanup(func() { version, gitCommit = oldVersion, oldCommit })

	version, gitCommit = "1.2.3", ""
	assert.Equal(t, "1.2.3", FormatVersion())

	gitCommit = "abc123"
	assert.Equal(t, "1.2.3 (git: abc123)", FormatVersion())
}

func TestFormatBuildInfo(t *testing.T) {
	oldBuild, oldGo := buildTime, goVersion
	t.Cleanup(func() { buildTime, goVersion = oldBuild, oldGo })

	buildTime, goVersion = "2026-01-01T00:00:00Z", ""
	build, goVer := FormatBuildInfo()
	assert.Equal(t, "2026-01-01T00:00:00Z", build)
	assert.Equal(t, runtime.Version(), goVer)
}
