// Package updatedealstatus implements the UPDATE_DEAL_STATUS action: move a
// CRM deal to a new status.
package updatedealstatus

import (
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// ActionFactory creates UpdateDealStatusAction instances.
type ActionFactory struct {
	crm protocol.CRM
}

// NewActionFactory creates the factory with its CRM collaborator.
func NewActionFactory(crm protocol.CRM) *ActionFactory {
	return &ActionFactory{crm: crm}
}

func (*ActionFactory) ID() string {
	return "UPDATE_DEAL_STATUS"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAction(f.crm, params)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dealId": map[string]any{
				"type":        "string",
				"description": "Deal to update; falls back to the dealId context key when absent",
			},
			"status": map[string]any{"type": "string"},
		},
		"required": []string{"status"},
	}
}
