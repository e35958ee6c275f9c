// Package sendwhatsapp implements the SEND_WHATSAPP action: substitute
// context placeholders into a message template and hand it to the messaging
// gateway.
package sendwhatsapp

import (
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// ActionFactory creates SendWhatsAppAction instances.
type ActionFactory struct {
	messenger protocol.Messenger
}

// NewActionFactory creates the factory with its messaging collaborator.
func NewActionFactory(messenger protocol.Messenger) *ActionFactory {
	return &ActionFactory{messenger: messenger}
}

func (*ActionFactory) ID() string {
	return "SEND_WHATSAPP"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAction(f.messenger, params)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Destination phone number",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message body; {{key}} placeholders resolve from the execution context",
			},
		},
		"required": []string{"to", "message"},
	}
}
