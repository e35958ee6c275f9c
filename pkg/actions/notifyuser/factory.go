// Package notifyuser implements the NOTIFY_USER action: create an in-app
// notification for a user of the organization.
package notifyuser

import (
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// ActionFactory creates NotifyUserAction instances.
type ActionFactory struct {
	notifications protocol.Notifications
}

// NewActionFactory creates the factory with its notifications collaborator.
func NewActionFactory(notifications protocol.Notifications) *ActionFactory {
	return &ActionFactory{notifications: notifications}
}

func (*ActionFactory) ID() string {
	return "NOTIFY_USER"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAction(f.notifications, params)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"userId":  map[string]any{"type": "string"},
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
			"priority": map[string]any{
				"type":    "string",
				"enum":    []string{"low", "normal", "high"},
				"default": "normal",
			},
		},
		"required": []string{"userId", "message"},
	}
}
