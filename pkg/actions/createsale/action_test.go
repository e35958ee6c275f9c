package createsale_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/actions/createsale"
	"github.com/fluxohq/fluxo/pkg/testutil"
)

func TestCreateSaleInsertsPendingSale(t *testing.T) {
	sales := &testutil.FakeSales{}

	action, err := createsale.NewAction(sales, map[string]any{
		"productId":  "prod-1",
		"customerId": "cust-1",
		"quantity":   2,
		"price":      19.9,
	})
	require.NoError(t, err)

	execCtx, recorder := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	require.Len(t, sales.Sales, 1)
	sale := sales.Sales[0]
	assert.Equal(t, "org-1", sale.OrganizationID)
	assert.Equal(t, "prod-1", sale.ProductID)
	assert.Equal(t, 2, sale.Quantity)
	assert.InDelta(t, 19.9, sale.Price, 0.001)
	assert.Equal(t, "pending", sale.PaymentStatus)
	assert.Equal(t, "pending", sale.DeliveryStatus)

	require.Len(t, recorder.Messages(), 1)
}

func TestCreateSaleRequiresParams(t *testing.T) {
	sales := &testutil.FakeSales{}

	_, err := createsale.NewAction(sales, map[string]any{"quantity": 1})
	require.Error(t, err)

	_, err = createsale.NewAction(sales, map[string]any{"productId": "p"})
	require.Error(t, err)
}
