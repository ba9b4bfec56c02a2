// Package bus holds the message shapes that cross the bridge in either
// direction. Nothing here is persisted by the bridge itself.
package bus

// InboundMessage is a message received from the transport, resolved to
// the host context that should receive it.
type InboundMessage struct {
	Channel  string `json:"channel"`
	SenderID string `json:"sender_id"` // full JID as reported by the transport
	ChatID   string `json:"chat_id"`   // resolved context name
	Content  string `json:"content"`
	Kind     string `json:"kind"` // "direct" | "group"
}

// OutboundMessage is a message the host wants delivered through the
// transport. ChatID is the destination identifier. Metadata carries the
// host's "from" and "context_name" when the message came from a hook.
type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
