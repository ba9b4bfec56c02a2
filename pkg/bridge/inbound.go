package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tinyland-inc/chibi-xmpp/pkg/bus"
	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
	"github.com/tinyland-inc/chibi-xmpp/pkg/inbox"
	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

// mcabber eventcmd markers.
const (
	EventMessage = "MSG"
	EventStatus  = "STATUS"
	EventUnread  = "UNREAD"

	DirectionIn  = "IN"
	DirectionOut = "OUT"
	DirectionMUC = "MUC"
)

// Event is one mcabber eventcmd invocation:
//
//	MSG IN|OUT|MUC jid [msgfile]
//	STATUS <status> jid
//	UNREAD count
type Event struct {
	Kind      string
	Direction string
	JID       string
	File      string
}

// IsEventArgs reports whether args have the shape of an eventcmd call.
func IsEventArgs(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case EventMessage:
		if len(args) < 3 {
			return false
		}
		switch args[1] {
		case DirectionIn, DirectionOut, DirectionMUC:
			return true
		}
		return false
	case EventStatus:
		return len(args) >= 3
	case EventUnread:
		return len(args) >= 2
	}
	return false
}

// ParseEvent decodes eventcmd arguments.
func ParseEvent(args []string) (Event, error) {
	if !IsEventArgs(args) {
		return Event{}, newError(ErrUnrecognizedInvocation, "parse event",
			fmt.Errorf("unexpected event arguments %q", args))
	}

	ev := Event{Kind: args[0]}
	switch ev.Kind {
	case EventMessage:
		ev.Direction = args[1]
		ev.JID = args[2]
		if len(args) > 3 {
			ev.File = args[3]
		}
	case EventStatus:
		ev.Direction = args[1]
		ev.JID = args[2]
	}
	return ev, nil
}

// Deliverable reports whether the event carries a message for the host.
func (e Event) Deliverable() bool {
	return e.Kind == EventMessage && (e.Direction == DirectionIn || e.Direction == DirectionMUC)
}

// HandleEvent queues an inbound message in its context's inbox and then
// starts the host. Only steps up to and including the inbox append decide
// the result; a host that fails to start is logged and the message stays
// queued for the next run.
func (b *Bridge) HandleEvent(ctx context.Context, ev Event) error {
	if !ev.Deliverable() {
		logger.DebugCF("inbound", "Ignoring event", map[string]any{
			"kind":      ev.Kind,
			"direction": ev.Direction,
		})
		return nil
	}

	body, err := readMessageFile(ev.File)
	if err != nil {
		logger.ErrorCF("inbound", "Failed to read message file", map[string]any{
			"file":  ev.File,
			"error": err.Error(),
		})
		return err
	}
	if body == "" {
		logger.DebugCF("inbound", "Empty message, nothing to deliver", map[string]any{"from": ev.JID})
		return nil
	}

	if !b.channel.IsAllowed(ev.JID) {
		logger.WarnCF("inbound", "Sender not in allow_from, dropping message", map[string]any{
			"from": ev.JID,
		})
		return nil
	}

	kind := "direct"
	if ev.Direction == DirectionMUC {
		kind = "group"
	}
	msg := bus.InboundMessage{
		Channel:  channelName,
		SenderID: ev.JID,
		ChatID:   b.cfg.ContextFor(ev.JID),
		Content:  body,
		Kind:     kind,
	}

	if err := b.deliver(ctx, msg); err != nil {
		return err
	}

	out, err := b.host.Notify(ctx, msg.ChatID)
	if err != nil {
		logger.ErrorCF("inbound", "Failed to start host; message stays queued", map[string]any{
			"context": msg.ChatID,
			"error":   err.Error(),
		})
		return nil
	}
	if out.Err != nil {
		logger.WarnCF("inbound", "Host reported an error", map[string]any{
			"context":   msg.ChatID,
			"exit_code": out.ExitCode,
		})
	}
	return nil
}

// deliver appends msg to the inbox of its resolved context.
func (b *Bridge) deliver(ctx context.Context, msg bus.InboundMessage) error {
	const op = "append inbox"

	entry := inbox.NewEntry(identity.Prefix+msg.SenderID, msg.ChatID, msg.Content)
	if err := b.inbox.Append(ctx, msg.ChatID, entry); err != nil {
		logger.ErrorCF("inbound", "Failed to append to inbox", map[string]any{
			"context": msg.ChatID,
			"error":   err.Error(),
		})
		if errors.Is(err, inbox.ErrBusy) {
			return newError(ErrInboxBusy, op, err)
		}
		return newError(ErrIO, op, err)
	}

	logger.InfoCF("inbound", "Message queued", map[string]any{
		"channel": msg.Channel,
		"from":    msg.SenderID,
		"context": msg.ChatID,
		"kind":    msg.Kind,
		"id":      entry.ID,
	})
	return nil
}

// readMessageFile returns the trimmed contents of mcabber's temporary
// message file and removes it. The file is removed after every successful
// read, whatever happens to the message afterwards.
func readMessageFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", newError(ErrIO, "read message file", err)
	}

	if err := os.Remove(path); err != nil {
		logger.WarnCF("inbound", "Failed to remove message file", map[string]any{
			"file":  path,
			"error": err.Error(),
		})
	}

	return strings.TrimSpace(string(data)), nil
}
