package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bus"
	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
)

// ToolName is the tool the host calls for direct sends.
const ToolName = "xmpp_send"

// SendArgs are the xmpp_send tool arguments.
type SendArgs struct {
	To      *string `json:"to"`
	Message *string `json:"message"`
}

// ToolResult is written to stdout after a direct tool call.
type ToolResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleToolCall runs xmpp_send. toolName may be empty when the host does
// not say which tool it is calling.
func (b *Bridge) HandleToolCall(ctx context.Context, toolName string, rawArgs []byte) (ToolResult, error) {
	const op = "xmpp_send"

	args, err := parseSendArgs(toolName, rawArgs)
	if err != nil {
		err = newError(ErrInvalidArguments, op, err)
		return ToolResult{Error: err.Error()}, err
	}

	// A bare JID is expected; tolerate the hook-style prefix anyway.
	to, _ := identity.StripPrefix(strings.TrimSpace(*args.To))

	msg := bus.OutboundMessage{ChatID: to, Content: *args.Message}
	if err := b.SendOutbound(ctx, msg); err != nil {
		return ToolResult{Error: err.Error()}, err
	}

	return ToolResult{
		OK:      true,
		Message: fmt.Sprintf("Message sent to %s via XMPP", to),
	}, nil
}

func parseSendArgs(toolName string, rawArgs []byte) (SendArgs, error) {
	if toolName != "" && toolName != ToolName {
		return SendArgs{}, fmt.Errorf("unknown tool %q", toolName)
	}

	var args SendArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return SendArgs{}, fmt.Errorf("parsing tool arguments: %w", err)
	}
	switch {
	case args.To == nil || strings.TrimSpace(*args.To) == "":
		return SendArgs{}, errors.New(`"to" is required`)
	case args.Message == nil || strings.TrimSpace(*args.Message) == "":
		return SendArgs{}, errors.New(`"message" is required`)
	}
	return args, nil
}
