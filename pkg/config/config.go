package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
)

// DefaultHostPrompt is the instruction passed to the host after an
// inbound message has been queued.
const DefaultHostPrompt = "You have received a new XMPP message. Check your inbox."

// ErrMissingHostBinary is returned when no host binary is configured.
var ErrMissingHostBinary = errors.New("host_binary is required")

type Config struct {
	HostBinary    string            `env:"CHIBI_XMPP_HOST_BINARY"     json:"host_binary"               yaml:"host_binary"`
	HostPrompt    string            `env:"CHIBI_XMPP_HOST_PROMPT"     json:"host_prompt,omitempty"     yaml:"host_prompt"`
	FIFOPath      string            `env:"CHIBI_XMPP_FIFO_PATH"       json:"fifo_path"                 yaml:"fifo_path"`
	ChibiDir      string            `env:"CHIBI_XMPP_CHIBI_DIR"       json:"chibi_dir"                 yaml:"chibi_dir"`
	Mappings      map[string]string `                                 json:"mappings,omitempty"        yaml:"mappings"` //nolint:tagalign // no env form for maps
	MappingsFile  string            `env:"CHIBI_XMPP_MAPPINGS_FILE"   json:"mappings_file,omitempty"   yaml:"mappings_file"`
	AllowFrom     []string          `env:"CHIBI_XMPP_ALLOW_FROM"      json:"allow_from,omitempty"      yaml:"allow_from"`
	LockTimeoutMS int               `env:"CHIBI_XMPP_LOCK_TIMEOUT_MS" json:"lock_timeout_ms,omitempty" yaml:"lock_timeout_ms"`
	HostGraceMS   int               `env:"CHIBI_XMPP_HOST_GRACE_MS"   json:"host_grace_ms,omitempty"   yaml:"host_grace_ms"`
	LogLevel      string            `env:"CHIBI_XMPP_LOG_LEVEL"       json:"log_level,omitempty"       yaml:"log_level"`
	LogFile       string            `env:"CHIBI_XMPP_LOG_FILE"        json:"log_file,omitempty"        yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		HostPrompt:    DefaultHostPrompt,
		FIFOPath:      "~/.mcabber/mcabber.fifo",
		ChibiDir:      "~/.chibi",
		Mappings:      map[string]string{},
		LockTimeoutMS: 5000,
		HostGraceMS:   2000,
		LogLevel:      "info",
	}
}

// LoadConfig reads the bridge configuration from path and applies
// CHIBI_XMPP_* environment overrides. Unlike most settings files the
// bridge config is mandatory: a missing or unreadable file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.FIFOPath = expandHome(cfg.FIFOPath)
	cfg.ChibiDir = expandHome(cfg.ChibiDir)
	cfg.HostBinary = expandHome(cfg.HostBinary)
	cfg.LogFile = expandHome(cfg.LogFile)
	if cfg.MappingsFile == "" {
		cfg.MappingsFile = filepath.Join(cfg.ChibiDir, "xmpp-mappings.json")
	}
	cfg.MappingsFile = expandHome(cfg.MappingsFile)
	if cfg.Mappings == nil {
		cfg.Mappings = map[string]string{}
	}

	if err := cfg.mergeMappingsFile(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DecodeFile reads path into cfg. No environment overrides or validation
// are applied.
func DecodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := decode(path, data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// decode picks the format from the file extension. JSON files may carry
// comments and trailing commas.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(jsonc.ToJSON(data), cfg)
	}
}

// mergeMappingsFile loads the standalone JID -> context table and fills in
// entries that the main config does not already define.
func (c *Config) mergeMappingsFile() error {
	data, err := os.ReadFile(c.MappingsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading mappings %s: %w", c.MappingsFile, err)
	}

	var extra map[string]string
	if err := json.Unmarshal(jsonc.ToJSON(data), &extra); err != nil {
		return fmt.Errorf("parsing mappings %s: %w", c.MappingsFile, err)
	}
	for jid, ctx := range extra {
		if _, ok := c.Mappings[jid]; !ok {
			c.Mappings[jid] = ctx
		}
	}
	return nil
}

// Validate checks required fields and that every mapped context name is
// already safe to use as a path component.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HostBinary) == "" {
		return ErrMissingHostBinary
	}
	if c.FIFOPath == "" {
		return errors.New("fifo_path must not be empty")
	}
	if c.ChibiDir == "" {
		return errors.New("chibi_dir must not be empty")
	}
	if c.LockTimeoutMS <= 0 {
		return fmt.Errorf("lock_timeout_ms must be positive, got %d", c.LockTimeoutMS)
	}
	if c.HostGraceMS < 0 {
		return fmt.Errorf("host_grace_ms must not be negative, got %d", c.HostGraceMS)
	}
	for jid, ctx := range c.Mappings {
		if strings.TrimSpace(jid) == "" {
			return errors.New("mappings: empty identifier key")
		}
		if !identity.IsSafe(ctx) {
			return fmt.Errorf("mappings[%q]: %q is not a valid context name", jid, ctx)
		}
	}
	return nil
}

// ContextFor resolves an identifier to its context name: the explicit
// mapping for exactly that identifier, or its sanitized form.
func (c *Config) ContextFor(jid string) string {
	if ctx, ok := c.Mappings[jid]; ok {
		return ctx
	}
	return identity.Sanitize(jid)
}

// ContextsDir is where the host keeps per-context state.
func (c *Config) ContextsDir() string {
	return filepath.Join(c.ChibiDir, "contexts")
}

func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

func (c *Config) HostGrace() time.Duration {
	return time.Duration(c.HostGraceMS) * time.Millisecond
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
