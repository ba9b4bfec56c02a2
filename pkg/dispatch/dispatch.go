package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bridge"
	"github.com/tinyland-inc/chibi-xmpp/pkg/config"
	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

// Invocation is everything one process run gets to look at.
type Invocation struct {
	Args   []string
	Env    LookupEnv
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ConfigLoader loads the bridge configuration. It is only called for modes
// that need it.
type ConfigLoader func() (*config.Config, error)

type Dispatcher struct {
	loadConfig ConfigLoader
	options    []bridge.Option
}

func New(loadConfig ConfigLoader, opts ...bridge.Option) *Dispatcher {
	return &Dispatcher{loadConfig: loadConfig, options: opts}
}

// Run handles one invocation and returns the process exit code.
func (d *Dispatcher) Run(ctx context.Context, inv Invocation) int {
	mode := Detect(inv.Args, inv.Env)
	logger.DebugCF("dispatch", "Invocation mode detected", map[string]any{
		"mode": mode.String(),
		"args": len(inv.Args),
	})

	var err error
	switch mode {
	case ModeSchema:
		err = writeJSON(inv.Stdout, bridge.PluginSchema())
	case ModeHook:
		err = d.runHook(ctx, inv)
	case ModeEvent:
		err = d.runEvent(ctx, inv)
	case ModeDirect:
		err = d.runDirect(ctx, inv)
	default:
		err = &bridge.Error{
			Kind: bridge.ErrUnrecognizedInvocation,
			Op:   "dispatch",
			Err: fmt.Errorf("expected %s, %s in the environment, %s in the environment, or mcabber event arguments; got %q",
				SchemaFlag, EnvHook, EnvToolArgs, inv.Args),
		}
	}

	if err != nil {
		fmt.Fprintf(inv.Stderr, "chibi-xmpp: %v\n", err)
	}
	return bridge.ExitCode(err)
}

func (d *Dispatcher) newBridge() (*bridge.Bridge, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, bridge.ConfigError(err)
	}
	setupLogging(cfg)
	return bridge.New(cfg, d.options...), nil
}

func (d *Dispatcher) runHook(ctx context.Context, inv Invocation) error {
	hookName, _ := inv.Env(EnvHook)
	payload := hookPayload(inv)

	// Decide without config so hooks for other destinations never fail
	// because of this plugin's setup.
	if _, ok := bridge.ClaimHook(hookName, payload); !ok {
		return writeJSON(inv.Stdout, bridge.Decline())
	}

	b, err := d.newBridge()
	if err != nil {
		_ = writeJSON(inv.Stdout, bridge.HookResponse{Error: err.Error()})
		return err
	}

	resp, err := b.HandlePreSend(ctx, hookName, payload)
	if werr := writeJSON(inv.Stdout, resp); err == nil {
		err = werr
	}
	return err
}

func (d *Dispatcher) runEvent(ctx context.Context, inv Invocation) error {
	ev, err := bridge.ParseEvent(inv.Args)
	if err != nil {
		return err
	}
	if !ev.Deliverable() {
		return nil
	}

	b, err := d.newBridge()
	if err != nil {
		return err
	}
	return b.HandleEvent(ctx, ev)
}

func (d *Dispatcher) runDirect(ctx context.Context, inv Invocation) error {
	rawArgs, _ := inv.Env(EnvToolArgs)
	toolName, _ := inv.Env(EnvToolName)

	b, err := d.newBridge()
	if err != nil {
		_ = writeJSON(inv.Stdout, bridge.ToolResult{Error: err.Error()})
		return err
	}

	res, err := b.HandleToolCall(ctx, toolName, []byte(rawArgs))
	if werr := writeJSON(inv.Stdout, res); err == nil {
		err = werr
	}
	return err
}

// hookPayload reads the hook data from stdin, falling back to the
// CHIBI_HOOK_DATA variable older hosts use. A terminal on stdin is never
// read.
func hookPayload(inv Invocation) []byte {
	if inv.Stdin != nil && !isTerminal(inv.Stdin) {
		data, err := io.ReadAll(inv.Stdin)
		if err != nil {
			logger.WarnCF("hook", "Failed to read hook payload from stdin", map[string]any{"error": err.Error()})
		}
		if len(data) > 0 {
			return data
		}
	}
	if data, ok := inv.Env(EnvHookData); ok && data != "" {
		return []byte(data)
	}
	return []byte("{}")
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

func setupLogging(cfg *config.Config) {
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile == "" {
		return
	}
	if err := logger.EnableFileLogging(cfg.LogFile); err != nil {
		logger.WarnCF("dispatch", "Failed to open log file", map[string]any{
			"path":  cfg.LogFile,
			"error": err.Error(),
		})
	}
}
