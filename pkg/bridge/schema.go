package bridge

import "github.com/tinyland-inc/chibi-xmpp/pkg/identity"

// Property describes one tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Parameters is the JSON Schema object for the tool's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Schema is the plugin description printed for --schema: one tool and the
// hooks it registers for.
type Schema struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
	Hooks       []string   `json:"hooks"`
	// Prefix is the destination prefix the pre_send_message hook claims.
	Prefix string `json:"prefix"`
}

func PluginSchema() Schema {
	return Schema{
		Name: ToolName,
		Description: "Send a message to an XMPP user or room via mcabber. " +
			"Messages sent to targets starting with '" + identity.Prefix +
			"' are routed through this plugin automatically.",
		Parameters: Parameters{
			Type: "object",
			Properties: map[string]Property{
				"to": {
					Type:        "string",
					Description: "XMPP JID (user@host or room@conference.host)",
				},
				"message": {
					Type:        "string",
					Description: "Message content to send",
				},
			},
			Required: []string{"to", "message"},
		},
		Hooks:  []string{HookPreSendMessage},
		Prefix: identity.Prefix,
	}
}
