// Package bridge moves messages between the chibi agent host and the
// mcabber XMPP client.
//
// Each process invocation handles exactly one event: an outbound send
// intercepted from the host's pre_send_message hook, a direct xmpp_send
// tool call, or an inbound message reported by mcabber's eventcmd. The
// bridge keeps no state between invocations.
package bridge

import (
	"context"
	"errors"
	"strings"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bus"
	"github.com/tinyland-inc/chibi-xmpp/pkg/channels"
	"github.com/tinyland-inc/chibi-xmpp/pkg/config"
	"github.com/tinyland-inc/chibi-xmpp/pkg/host"
	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
	"github.com/tinyland-inc/chibi-xmpp/pkg/inbox"
	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

const channelName = "xmpp"

// Notifier starts the host for a context.
type Notifier interface {
	Notify(ctx context.Context, contextName string) (host.Outcome, error)
}

type Bridge struct {
	cfg     *config.Config
	channel channels.Channel
	inbox   *inbox.Store
	host    Notifier
}

type Option func(*Bridge)

// WithChannel replaces the FIFO-backed transport channel.
func WithChannel(ch channels.Channel) Option {
	return func(b *Bridge) { b.channel = ch }
}

// WithNotifier replaces the subprocess host launcher.
func WithNotifier(n Notifier) Option {
	return func(b *Bridge) { b.host = n }
}

func New(cfg *config.Config, opts ...Option) *Bridge {
	b := &Bridge{
		cfg:     cfg,
		channel: channels.NewXMPPChannel(cfg.FIFOPath, cfg.AllowFrom),
		inbox:   inbox.NewStore(cfg.ContextsDir(), cfg.LockTimeout()),
		host:    host.NewLauncher(cfg.HostBinary, cfg.HostPrompt, cfg.HostGrace()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Inbox exposes the store the bridge appends to.
func (b *Bridge) Inbox() *inbox.Store {
	return b.inbox
}

// SendOutbound validates a bare destination and hands the message to the
// transport. The mapping table is not consulted: outbound addressing
// always uses the identifier the caller supplied.
func (b *Bridge) SendOutbound(ctx context.Context, msg bus.OutboundMessage) error {
	const op = "send"

	jid, err := identity.ParseJID(msg.ChatID)
	if err != nil {
		return newError(ErrInvalidDestination, op, err)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return newError(ErrInvalidArguments, op, errors.New("message body is empty"))
	}

	msg.Channel = channelName
	msg.ChatID = jid.String()

	if err := b.channel.Send(ctx, msg); err != nil {
		logger.ErrorCF("outbound", "Failed to hand message to transport", map[string]any{
			"to":    msg.ChatID,
			"error": err.Error(),
		})
		if errors.Is(err, channels.ErrTransportUnavailable) {
			return newError(ErrTransportUnavailable, op, err)
		}
		return newError(ErrIO, op, err)
	}

	logger.InfoCF("outbound", "Message sent", map[string]any{
		"to":     msg.ChatID,
		"length": len(msg.Content),
	})
	return nil
}
