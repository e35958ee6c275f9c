// Package createsale implements the CREATE_SALE action: insert a sale row
// with pending payment and delivery statuses.
package createsale

import (
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// ActionFactory creates CreateSaleAction instances.
type ActionFactory struct {
	sales protocol.Sales
}

// NewActionFactory creates the factory with its sales collaborator.
func NewActionFactory(sales protocol.Sales) *ActionFactory {
	return &ActionFactory{sales: sales}
}

func (*ActionFactory) ID() string {
	return "CREATE_SALE"
}

func (f *ActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAction(f.sales, params)
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"productId":  map[string]any{"type": "string"},
			"quantity":   map[string]any{"type": "number"},
			"customerId": map[string]any{"type": "string"},
			"price":      map[string]any{"type": "number"},
		},
		"required": []string{"productId", "quantity"},
	}
}
