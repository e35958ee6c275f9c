package updatestock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// UpdateStockAction applies a signed quantity delta to a product's stock and
// writes a movement record with a before/after snapshot.
type UpdateStockAction struct {
	inventory protocol.Inventory
	ProductID string
	Quantity  int
	Reason    string
}

func NewAction(inventory protocol.Inventory, params map[string]any) (*UpdateStockAction, error) {
	cfg := models.ActionConfig{Params: params}

	productID := cfg.ParamString("productId")
	if productID == "" {
		return nil, errors.New("UPDATE_STOCK requires a productId param")
	}

	quantity, ok := cfg.ParamInt("quantity")
	if !ok {
		return nil, errors.New("UPDATE_STOCK requires a numeric quantity param")
	}

	return &UpdateStockAction{
		inventory: inventory,
		ProductID: productID,
		Quantity:  quantity,
		Reason:    cfg.ParamString("reason"),
	}, nil
}

func (a *UpdateStockAction) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if executionCtx.OrganizationID == "" {
		return nil, errors.New("execution has no organization context")
	}

	product, err := a.inventory.GetProduct(ctx, executionCtx.OrganizationID, a.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", a.ProductID, err)
	}

	before := product.Stock
	after := before + a.Quantity

	if err := a.inventory.SetStock(ctx, executionCtx.OrganizationID, a.ProductID, after); err != nil {
		return nil, fmt.Errorf("failed to update stock for product %s: %w", a.ProductID, err)
	}

	movement := protocol.StockMovement{
		ProductID:      a.ProductID,
		OrganizationID: executionCtx.OrganizationID,
		Quantity:       a.Quantity,
		BeforeStock:    before,
		AfterStock:     after,
		Reason:         a.Reason,
		OccurredAt:     time.Now().UTC(),
	}
	if err := a.inventory.RecordMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement for product %s: %w", a.ProductID, err)
	}

	executionCtx.Recorder.Info(ctx, fmt.Sprintf("Stock updated for %s: %d -> %d", product.Name, before, after))
	logger.InfoContext(ctx, "Stock updated",
		"product_id", a.ProductID,
		"before", before,
		"after", after,
	)

	return nil, nil
}
