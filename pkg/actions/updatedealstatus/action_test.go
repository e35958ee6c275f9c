package updatedealstatus_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/actions/updatedealstatus"
	"github.com/fluxohq/fluxo/pkg/testutil"
)

func TestUpdateDealStatusFromParams(t *testing.T) {
	crm := &testutil.FakeCRM{}

	action, err := updatedealstatus.NewAction(crm, map[string]any{
		"dealId": "deal-1",
		"status": "won",
	})
	require.NoError(t, err)

	execCtx, recorder := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	require.Len(t, crm.Updates, 1)
	assert.Equal(t, "deal-1", crm.Updates[0].DealID)
	assert.Equal(t, "won", crm.Updates[0].Status)

	messages := recorder.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "deal-1")
}

func TestUpdateDealStatusFallsBackToContext(t *testing.T) {
	crm := &testutil.FakeCRM{}

	action, err := updatedealstatus.NewAction(crm, map[string]any{"status": "lost"})
	require.NoError(t, err)

	execCtx, _ := testutil.ExecutionContext("org-1", map[string]any{"dealId": "deal-from-ctx"})

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	require.Len(t, crm.Updates, 1)
	assert.Equal(t, "deal-from-ctx", crm.Updates[0].DealID)
}

func TestUpdateDealStatusMissingDealFails(t *testing.T) {
	crm := &testutil.FakeCRM{}

	action, err := updatedealstatus.NewAction(crm, map[string]any{"status": "won"})
	require.NoError(t, err)

	execCtx, _ := testutil.ExecutionContext("org-1", nil)

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.Error(t, err)
	assert.Empty(t, crm.Updates)
}

func TestUpdateDealStatusRequiresStatus(t *testing.T) {
	_, err := updatedealstatus.NewAction(&testutil.FakeCRM{}, map[string]any{"dealId": "d"})
	require.Error(t, err)
}
