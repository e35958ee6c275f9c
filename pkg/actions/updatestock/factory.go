// Package updatestock implements the UPDATE_STOCK action: apply a quantity
// delta to a product and record the inventory movement.
package updatestock

import (
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// ActionFactory creates UpdateStockAction instances.
type ActionFactory struct {
	inventory protocol.Inventory
}

// NewActionFactory creates the factory with its inventory collaborator.
func NewActionFactory(inventory protocol.Inventory) *ActionFactory {
	return &ActionFactory{inventory: inventory}
}

func (*ActionFactory) ID() string {
	return "UPDATE_STOCK"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAction(f.inventory, params)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"productId": map[string]any{
				"type":        "string",
				"description": "Product whose stock is adjusted",
			},
			"quantity": map[string]any{
				"type":        "number",
				"description": "Signed stock delta; negative values consume stock",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Free-form reason recorded on the movement",
			},
		},
		"required": []string{"productId", "quantity"},
	}
}
