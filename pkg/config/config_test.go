package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "xmpp-bridge.json", `{"host_binary": "/usr/bin/chibi", "chibi_dir": "`+dir+`"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, "/usr/bin/chibi", cfg.HostBinary)
	assert.Equal(t, filepath.Join(home, ".mcabber", "mcabber.fifo"), cfg.FIFOPath)
	assert.Equal(t, DefaultHostPrompt, cfg.HostPrompt)
	assert.Equal(t, filepath.Join(dir, "xmpp-mappings.json"), cfg.MappingsFile)
	assert.Equal(t, filepath.Join(dir, "contexts"), cfg.ContextsDir())
	assert.Empty(t, cfg.Mappings)
	assert.Equal(t, int64(5000), cfg.LockTimeout().Milliseconds())
	assert.Equal(t, int64(2000), cfg.HostGrace().Milliseconds())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_MissingHostBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.json", `{"chibi_dir": "`+dir+`"}`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrMissingHostBinary)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.json", `{"host_binary": `)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadConfig_JSONWithComments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.jsonc", `{
  // the agent host
  "host_binary": "chibi",
  "chibi_dir": "`+dir+`",
  "mappings": {
    "alice@example.org": "alice-chat", // trailing comma is fine
  },
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "chibi", cfg.HostBinary)
	assert.Equal(t, "alice-chat", cfg.Mappings["alice@example.org"])
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", `host_binary: /opt/chibi/bin/chibi
chibi_dir: `+dir+`
fifo_path: /run/mcabber.fifo
lock_timeout_ms: 250
allow_from:
  - alice@example.org
  - "@trusted.example"
mappings:
  bob@example.org: bob
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/chibi/bin/chibi", cfg.HostBinary)
	assert.Equal(t, "/run/mcabber.fifo", cfg.FIFOPath)
	assert.Equal(t, 250, cfg.LockTimeoutMS)
	assert.Equal(t, []string{"alice@example.org", "@trusted.example"}, cfg.AllowFrom)
	assert.Equal(t, "bob", cfg.Mappings["bob@example.org"])
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.json", `{"host_binary": "chibi", "chibi_dir": "`+dir+`"}`)

	t.Setenv("CHIBI_XMPP_HOST_BINARY", "/custom/chibi")
	t.Setenv("CHIBI_XMPP_FIFO_PATH", "/tmp/other.fifo")
	t.Setenv("CHIBI_XMPP_ALLOW_FROM", "a@x.org,b@y.org")
	t.Setenv("CHIBI_XMPP_LOCK_TIMEOUT_MS", "100")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/custom/chibi", cfg.HostBinary)
	assert.Equal(t, "/tmp/other.fifo", cfg.FIFOPath)
	assert.Equal(t, []string{"a@x.org", "b@y.org"}, cfg.AllowFrom)
	assert.Equal(t, 100, cfg.LockTimeoutMS)
}

func TestLoadConfig_MergesLegacyMappingsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "xmpp-mappings.json", `{
  "alice@example.org": "from-legacy",
  "carol@example.org": "carol"
}`)
	path := writeFile(t, dir, "c.json", `{
  "host_binary": "chibi",
  "chibi_dir": "`+dir+`",
  "mappings": {"alice@example.org": "alice-chat"}
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "alice-chat", cfg.Mappings["alice@example.org"])
	assert.Equal(t, "carol", cfg.Mappings["carol@example.org"])
}

func TestLoadConfig_RejectsUnsafeMapping(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.json", `{
  "host_binary": "chibi",
  "chibi_dir": "`+dir+`",
  "mappings": {"evil@example.org": "../../etc"}
}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid context name")
}

func TestLoadConfig_AllowFromMustBeStrings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.json", `{"host_binary": "chibi", "chibi_dir": "`+dir+`", "allow_from": ["a@b.org", 123]}`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestContextFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mappings = map[string]string{
		"alice@example.org":      "alice-chat",
		"bob@example.org/laptop": "bob-laptop",
	}

	assert.Equal(t, "alice-chat", cfg.ContextFor("alice@example.org"))
	assert.Equal(t, "bob-laptop", cfg.ContextFor("bob@example.org/laptop"))

	for _, jid := range []string{"carol@example.org", "bob@example.org", "", "../x", "alice@example.org/phone"} {
		assert.Equal(t, identity.Sanitize(jid), cfg.ContextFor(jid), "jid %q", jid)
	}
}

func TestContextFor_MappingKeysAreExact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mappings = map[string]string{"alice@example.org": "alice-chat"}

	got := cfg.ContextFor("alice@example.org/phone")
	assert.Equal(t, identity.Sanitize("alice@example.org/phone"), got)
	assert.Equal(t, "alice_at_example_org_phone", got)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HostBinary = "chibi"
	require.NoError(t, cfg.Validate())

	cfg.LockTimeoutMS = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.HostBinary = "chibi"
	cfg.Mappings = map[string]string{"a@b.org": strings.Repeat("x", identity.MaxContextNameLength+1)}
	assert.Error(t, cfg.Validate())
}
