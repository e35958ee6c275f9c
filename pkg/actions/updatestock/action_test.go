package updatestock_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/actions/updatestock"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/testutil"
)

func TestUpdateStockAppliesDelta(t *testing.T) {
	inventory := testutil.NewFakeInventory(&protocol.Product{
		ID:             "prod-1",
		OrganizationID: "org-1",
		Name:           "Widget",
		Stock:          5,
	})

	action, err := updatestock.NewAction(inventory, map[string]any{
		"productId": "prod-1",
		"quantity":  10,
	})
	require.NoError(t, err)

	execCtx, recorder := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 15, inventory.Products["prod-1"].Stock)

	require.Len(t, inventory.Movements, 1)
	assert.Equal(t, 5, inventory.Movements[0].BeforeStock)
	assert.Equal(t, 15, inventory.Movements[0].AfterStock)
	assert.Equal(t, 10, inventory.Movements[0].Quantity)

	messages := recorder.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "5 -> 15")
	assert.Contains(t, messages[0], "Widget")
}

func TestUpdateStockNegativeDelta(t *testing.T) {
	inventory := testutil.NewFakeInventory(&protocol.Product{
		ID:             "prod-1",
		OrganizationID: "org-1",
		Name:           "Widget",
		Stock:          5,
	})

	action, err := updatestock.NewAction(inventory, map[string]any{
		"productId": "prod-1",
		"quantity":  -3,
	})
	require.NoError(t, err)

	execCtx, _ := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 2, inventory.Products["prod-1"].Stock)
}

func TestUpdateStockRequiresParams(t *testing.T) {
	inventory := testutil.NewFakeInventory()

	_, err := updatestock.NewAction(inventory, map[string]any{"quantity": 1})
	require.Error(t, err)

	_, err = updatestock.NewAction(inventory, map[string]any{"productId": "p"})
	require.Error(t, err)

	// JSON numbers arrive as float64.
	_, err = updatestock.NewAction(inventory, map[string]any{"productId": "p", "quantity": float64(7)})
	require.NoError(t, err)
}

func TestUpdateStockRequiresOrganization(t *testing.T) {
	inventory := testutil.NewFakeInventory()

	action, err := updatestock.NewAction(inventory, map[string]any{"productId": "p", "quantity": 1})
	require.NoError(t, err)

	execCtx, _ := testutil.ExecutionContext("", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.Error(t, err)
	assert.Empty(t, inventory.Movements)
}

func TestUpdateStockUnknownProduct(t *testing.T) {
	inventory := testutil.NewFakeInventory()

	action, err := updatestock.NewAction(inventory, map[string]any{"productId": "ghost", "quantity": 1})
	require.NoError(t, err)

	execCtx, _ := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.Error(t, err)
}
