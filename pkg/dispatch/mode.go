// Package dispatch decides how the bridge was invoked and runs the
// matching handler.
package dispatch

import "github.com/tinyland-inc/chibi-xmpp/pkg/bridge"

// Environment variables set by the host.
const (
	EnvHook     = "CHIBI_HOOK"
	EnvHookData = "CHIBI_HOOK_DATA"
	EnvToolArgs = "CHIBI_TOOL_ARGS"
	EnvToolName = "CHIBI_TOOL_NAME"

	SchemaFlag = "--schema"
)

type Mode int

const (
	ModeUnrecognized Mode = iota
	ModeSchema
	ModeHook
	ModeEvent
	ModeDirect
)

func (m Mode) String() string {
	switch m {
	case ModeSchema:
		return "schema"
	case ModeHook:
		return "hook"
	case ModeEvent:
		return "event"
	case ModeDirect:
		return "direct"
	default:
		return "unrecognized"
	}
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// predicates are checked in order; the first match decides the mode.
var predicates = []struct {
	mode  Mode
	match func(args []string, env LookupEnv) bool
}{
	{ModeSchema, func(args []string, _ LookupEnv) bool {
		return len(args) > 0 && args[0] == SchemaFlag
	}},
	{ModeHook, func(_ []string, env LookupEnv) bool {
		v, ok := env(EnvHook)
		return ok && v != ""
	}},
	{ModeEvent, func(args []string, _ LookupEnv) bool {
		return bridge.IsEventArgs(args)
	}},
	{ModeDirect, func(_ []string, env LookupEnv) bool {
		v, ok := env(EnvToolArgs)
		return ok && v != ""
	}},
}

// Detect picks the invocation mode from the arguments (without the
// program name) and the environment.
func Detect(args []string, env LookupEnv) Mode {
	for _, p := range predicates {
		if p.match(args, env) {
			return p.mode
		}
	}
	return ModeUnrecognized
}
