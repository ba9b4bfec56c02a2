package bridge

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bus"
	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

// HookPreSendMessage fires before the host delivers a message.
const HookPreSendMessage = "pre_send_message"

// HookResponse is written to stdout after a hook invocation. Delivered
// false tells the host to continue with its own delivery.
type HookResponse struct {
	Delivered bool   `json:"delivered"`
	Via       string `json:"via,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Decline is the response for hooks the bridge does not handle.
func Decline() HookResponse {
	return HookResponse{}
}

// ClaimHook reports whether a hook firing is addressed to this transport
// and, if so, the bare destination. It has no side effects and needs no
// configuration, so unrelated hook firings never touch the filesystem.
func ClaimHook(hookName string, payload []byte) (string, bool) {
	if hookName != HookPreSendMessage {
		return "", false
	}
	if !gjson.ValidBytes(payload) {
		logger.WarnCF("hook", "Ignoring malformed hook payload", map[string]any{
			"hook":  hookName,
			"bytes": len(payload),
		})
		return "", false
	}
	return identity.StripPrefix(gjson.GetBytes(payload, "to").String())
}

// HandlePreSend delivers a pre_send_message payload through the transport
// when its destination carries the xmpp: prefix.
func (b *Bridge) HandlePreSend(ctx context.Context, hookName string, payload []byte) (HookResponse, error) {
	jid, ok := ClaimHook(hookName, payload)
	if !ok {
		return Decline(), nil
	}

	fields := gjson.GetManyBytes(payload, "content", "from", "context_name")
	msg := bus.OutboundMessage{
		ChatID:  jid,
		Content: fields[0].String(),
		Metadata: map[string]string{
			"from":         fields[1].String(),
			"context_name": fields[2].String(),
		},
	}

	if err := b.SendOutbound(ctx, msg); err != nil {
		return HookResponse{Error: err.Error()}, err
	}

	return HookResponse{Delivered: true, Via: identity.Prefix + msg.ChatID}, nil
}
