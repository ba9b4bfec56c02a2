package channels

import (
	"context"
	"strings"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bus"
)

type Channel interface {
	Name() string
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsAllowed(senderID string) bool
}

// BaseChannelOption is a functional option for configuring a BaseChannel.
type BaseChannelOption func(*BaseChannel)

// WithAllowList restricts which senders may reach the host. An empty
// list allows everyone.
func WithAllowList(allowList []string) BaseChannelOption {
	return func(c *BaseChannel) { c.allowList = allowList }
}

type BaseChannel struct {
	name      string
	allowList []string
}

func NewBaseChannel(name string, opts ...BaseChannelOption) *BaseChannel {
	bc := &BaseChannel{name: name}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

func (c *BaseChannel) Name() string {
	return c.name
}

// IsAllowed matches a sender JID against the allow-list. Entries may be a
// full JID, a bare JID (any resource matches), or "@domain" for a whole
// server. Comparison is case-insensitive, as JID local and domain parts are.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	sender := strings.ToLower(strings.TrimSpace(senderID))
	bare, _, _ := strings.Cut(sender, "/")
	_, domain, _ := strings.Cut(bare, "@")

	for _, allowed := range c.allowList {
		a := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(allowed, "xmpp:")))
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "@") {
			if domain != "" && domain == a[1:] {
				return true
			}
			continue
		}
		if sender == a || bare == a {
			return true
		}
	}

	return false
}
