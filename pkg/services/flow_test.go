package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/actions/updatestock"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence/file"
	"github.com/fluxohq/fluxo/pkg/registry"
	"github.com/fluxohq/fluxo/pkg/services"
	"github.com/fluxohq/fluxo/pkg/testutil"
)

func newFlowService(t *testing.T) *services.Flow {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	t.Cleanup(func() {
		err := persistence.Close(context.Background())
		require.NoError(t, err)
	})

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(updatestock.NewActionFactory(&testutil.FakeInventory{}))

	return services.NewFlow(persistence, reg)
}

func graphRequest(name string) services.SaveFlowRequest {
	return services.SaveFlowRequest{
		Name: name,
		Nodes: []*models.FlowNode{
			{ID: "start", Type: models.NodeTypeTrigger, Config: map[string]any{"event": "manual"}},
			{ID: "adjust", Type: models.NodeTypeAction, Config: map[string]any{
				"action": "UPDATE_STOCK",
				"params": map[string]any{"productId": "sku-1", "quantity": 10},
			}},
		},
		Edges: []*models.FlowEdge{
			{ID: "e1", SourceNodeID: "start", TargetNodeID: "adjust"},
		},
	}
}

func TestSaveFlowAssignsIDsAndDefaults(t *testing.T) {
	service := newFlowService(t)
	ctx := context.Background()

	req := graphRequest("Restock")
	req.Nodes[0].ID = ""
	req.Nodes[1].ID = ""
	req.Edges = nil

	flowID, err := service.SaveFlow(ctx, "org-1", req)
	require.NoError(t, err)
	require.NotEmpty(t, flowID)

	flow, err := service.GetFlow(ctx, flowID, "org-1")
	require.NoError(t, err)

	assert.Equal(t, models.FlowStatusActive, flow.Status)

	for _, node := range flow.Nodes {
		assert.NotEmpty(t, node.ID)
	}
}

func TestSaveFlowRequiresOrganizationAndName(t *testing.T) {
	service := newFlowService(t)
	ctx := context.Background()

	_, err := service.SaveFlow(ctx, "", graphRequest("Restock"))
	assert.ErrorIs(t, err, services.ErrOrganizationRequired)

	_, err = service.SaveFlow(ctx, "org-1", graphRequest(""))
	assert.ErrorIs(t, err, services.ErrFlowNameRequired)
}

func TestSaveFlowRejectsGhostEdgeEndpoints(t *testing.T) {
	service := newFlowService(t)

	req := graphRequest("Restock")
	req.Edges = append(req.Edges, &models.FlowEdge{ID: "e2", SourceNodeID: "adjust", TargetNodeID: "ghost"})

	_, err := service.SaveFlow(context.Background(), "org-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrUnknownEdgeEndpoint)
	assert.True(t, services.IsValidationError(err))
}

func TestSaveFlowValidatesKnownActionParams(t *testing.T) {
	service := newFlowService(t)

	req := graphRequest("Restock")
	req.Nodes[1].Config = map[string]any{
		"action": "UPDATE_STOCK",
		"params": map[string]any{"productId": "sku-1"},
	}

	_, err := service.SaveFlow(context.Background(), "org-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidActionParams)
}

func TestSaveFlowAllowsUnknownActions(t *testing.T) {
	service := newFlowService(t)

	req := graphRequest("Restock")
	req.Nodes[1].Config = map[string]any{
		"action": "LAUNCH_ROCKET",
		"params": map[string]any{"target": "moon"},
	}

	_, err := service.SaveFlow(context.Background(), "org-1", req)
	assert.NoError(t, err)
}

func TestSaveFlowReplacesExistingDefinition(t *testing.T) {
	service := newFlowService(t)
	ctx := context.Background()

	flowID, err := service.SaveFlow(ctx, "org-1", graphRequest("Restock"))
	require.NoError(t, err)

	original, err := service.GetFlow(ctx, flowID, "org-1")
	require.NoError(t, err)
	require.False(t, original.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)

	updated := graphRequest("Restock v2")
	updated.ID = flowID
	updated.Nodes = updated.Nodes[:1]
	updated.Edges = nil

	returnedID, err := service.SaveFlow(ctx, "org-1", updated)
	require.NoError(t, err)
	assert.Equal(t, flowID, returnedID)

	flow, err := service.GetFlow(ctx, flowID, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Restock v2", flow.Name)
	assert.Len(t, flow.Nodes, 1)
	assert.Empty(t, flow.Edges)
	assert.WithinDuration(t, original.CreatedAt, flow.CreatedAt, 0)
	assert.True(t, flow.UpdatedAt.After(original.UpdatedAt))
}

func TestGetFlowIsOrganizationScoped(t *testing.T) {
	service := newFlowService(t)
	ctx := context.Background()

	flowID, err := service.SaveFlow(ctx, "org-1", graphRequest("Restock"))
	require.NoError(t, err)

	_, err = service.GetFlow(ctx, flowID, "org-2")
	assert.ErrorIs(t, err, services.ErrFlowNotFound)
}
