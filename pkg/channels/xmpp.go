package channels

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bus"
	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

// ErrTransportUnavailable means the transport's command FIFO is missing
// or nobody is reading it.
var ErrTransportUnavailable = errors.New("command fifo unavailable")

// XMPPChannel delivers outbound messages by writing mcabber commands into
// its command FIFO.
type XMPPChannel struct {
	*BaseChannel
	fifoPath string
}

func NewXMPPChannel(fifoPath string, allowFrom []string) *XMPPChannel {
	return &XMPPChannel{
		BaseChannel: NewBaseChannel("xmpp", WithAllowList(allowFrom)),
		fifoPath:    fifoPath,
	}
}

// Send writes one /say_to command line for msg. Messages addressed to
// another channel are refused. It never retries; the caller decides what
// to do when the transport is down.
func (c *XMPPChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.Channel != "" && msg.Channel != c.Name() {
		return fmt.Errorf("message for channel %q cannot be sent on %q", msg.Channel, c.Name())
	}

	line := FormatSayTo(msg.ChatID, msg.Content)

	// O_NONBLOCK makes open fail with ENXIO instead of hanging when the
	// transport is not running.
	f, err := os.OpenFile(c.fifoPath, os.O_WRONLY|os.O_APPEND|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrTransportUnavailable, c.fifoPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrTransportUnavailable, c.fifoPath, err)
	}

	logger.DebugCF("xmpp", "Command written to transport", map[string]any{
		"to":           msg.ChatID,
		"bytes":        len(line),
		"from":         msg.Metadata["from"],
		"context_name": msg.Metadata["context_name"],
	})
	return nil
}

// FormatSayTo renders the mcabber command for a message. Bodies with line
// breaks are escaped and sent with -e so the command stays on one line.
func FormatSayTo(jid, body string) string {
	if !strings.ContainsAny(body, "\r\n") {
		return fmt.Sprintf("/say_to %s %s\n", jid, body)
	}
	return fmt.Sprintf("/say_to -e %s %s\n", jid, escapeBody(body))
}

var bodyEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

func escapeBody(body string) string {
	return bodyEscaper.Replace(body)
}
