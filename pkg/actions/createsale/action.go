package createsale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// CreateSaleAction inserts a sale row. Payment and delivery statuses start
// as pending; downstream subsystems move them along.
type CreateSaleAction struct {
	sales      protocol.Sales
	ProductID  string
	CustomerID string
	Quantity   int
	Price      float64
}

func NewAction(sales protocol.Sales, params map[string]any) (*CreateSaleAction, error) {
	cfg := models.ActionConfig{Params: params}

	productID := cfg.ParamString("productId")
	if productID == "" {
		return nil, errors.New("CREATE_SALE requires a productId param")
	}

	quantity, ok := cfg.ParamInt("quantity")
	if !ok {
		return nil, errors.New("CREATE_SALE requires a numeric quantity param")
	}

	price, _ := cfg.ParamFloat("price")

	return &CreateSaleAction{
		sales:      sales,
		ProductID:  productID,
		CustomerID: cfg.ParamString("customerId"),
		Quantity:   quantity,
		Price:      price,
	}, nil
}

func (a *CreateSaleAction) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if executionCtx.OrganizationID == "" {
		return nil, errors.New("execution has no organization context")
	}

	sale := protocol.Sale{
		OrganizationID: executionCtx.OrganizationID,
		ProductID:      a.ProductID,
		CustomerID:     a.CustomerID,
		Quantity:       a.Quantity,
		Price:          a.Price,
		PaymentStatus:  "pending",
		DeliveryStatus: "pending",
	}
	if err := a.sales.CreateSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale for product %s: %w", a.ProductID, err)
	}

	executionCtx.Recorder.Info(ctx, fmt.Sprintf("Sale created: %d x %s", a.Quantity, a.ProductID))
	logger.InfoContext(ctx, "Sale created",
		"product_id", a.ProductID,
		"quantity", a.Quantity,
		"customer_id", a.CustomerID,
	)

	return nil, nil
}
