package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Children first, parents last.
	for _, table := range []string{"flow_executions", "flow_edges", "flow_nodes", "flows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("fluxo_test"),
			postgres.WithUsername("fluxo"),
			postgres.WithPassword("fluxo"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDB(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func testFlow(organizationID string) *models.FlowDefinition {
	return &models.FlowDefinition{
		OrganizationID: organizationID,
		Name:           "Restock alert",
		Description:    "Notify sales when stock drops",
		Status:         models.FlowStatusActive,
		Nodes: []*models.FlowNode{
			{
				ID:       "start",
				Type:     models.NodeTypeTrigger,
				Config:   map[string]any{"event": "stock.low"},
				Position: models.Position{X: 10, Y: 20},
			},
			{
				ID:   "check",
				Type: models.NodeTypeCondition,
				Config: map[string]any{
					"field":    "quantity",
					"operator": "lt",
					"value":    5,
				},
			},
			{
				ID:   "notify",
				Type: models.NodeTypeAction,
				Config: map[string]any{
					"action": "SEND_WHATSAPP",
					"params": map[string]any{"to": "+5511999990000", "message": "Low stock"},
				},
				Metadata: map[string]any{"color": "red"},
			},
		},
		Edges: []*models.FlowEdge{
			{ID: "e1", SourceNodeID: "start", TargetNodeID: "check"},
			{ID: "e2", SourceNodeID: "check", TargetNodeID: "notify", ConditionLabel: "true"},
		},
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'flows')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "flows table should exist")

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'flow_executions')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "flow_executions table should exist")

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestNewPersistence_SaveAndRetrieveFlow(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	flow := testFlow("org-acme")

	err := p.FlowRepository().SaveFlow(ctx, flow)
	require.NoError(t, err)
	assert.NotEmpty(t, flow.ID)
	assert.False(t, flow.CreatedAt.IsZero())
	assert.False(t, flow.UpdatedAt.IsZero())

	retrieved, err := p.FlowRepository().FlowWithGraph(ctx, flow.ID, "org-acme")
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, flow.ID, retrieved.ID)
	assert.Equal(t, "Restock alert", retrieved.Name)
	assert.Equal(t, models.FlowStatusActive, retrieved.Status)
	require.Len(t, retrieved.Nodes, 3)
	require.Len(t, retrieved.Edges, 2)

	// Node order and config survive the round trip.
	assert.Equal(t, "start", retrieved.Nodes[0].ID)
	assert.Equal(t, "stock.low", retrieved.Nodes[0].Config["event"])
	assert.Equal(t, 10, retrieved.Nodes[0].Position.X)
	assert.Equal(t, "red", retrieved.Nodes[2].Metadata["color"])
	assert.Equal(t, "true", retrieved.Edges[1].ConditionLabel)

	_, err = p.FlowRepository().FlowWithGraph(ctx, uuid.NewString(), "org-acme")
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)
}

func TestNewPersistence_SaveReplacesGraph(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	flow := testFlow("org-acme")

	err := p.FlowRepository().SaveFlow(ctx, flow)
	require.NoError(t, err)

	initialUpdatedAt := flow.UpdatedAt

	time.Sleep(10 * time.Millisecond)

	flow.Name = "Restock alert v2"
	flow.Nodes = flow.Nodes[:2]
	flow.Edges = flow.Edges[:1]

	err = p.FlowRepository().SaveFlow(ctx, flow)
	require.NoError(t, err)

	retrieved, err := p.FlowRepository().FlowWithGraph(ctx, flow.ID, "org-acme")
	require.NoError(t, err)

	assert.Equal(t, "Restock alert v2", retrieved.Name)
	assert.Len(t, retrieved.Nodes, 2)
	assert.Len(t, retrieved.Edges, 1)
	assert.True(t, retrieved.UpdatedAt.After(initialUpdatedAt))
}

func TestNewPersistence_FlowIsOrganizationScoped(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	flow := testFlow("org-acme")

	err := p.FlowRepository().SaveFlow(ctx, flow)
	require.NoError(t, err)

	_, err = p.FlowRepository().FlowWithGraph(ctx, flow.ID, "org-other")
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)

	// Re-saving under another organization's tenant must not hijack the row.
	hijack := testFlow("org-other")
	hijack.ID = flow.ID

	err = p.FlowRepository().SaveFlow(ctx, hijack)
	assert.ErrorIs(t, err, persistence.ErrFlowNotFound)

	kept, err := p.FlowRepository().FlowWithGraph(ctx, flow.ID, "org-acme")
	require.NoError(t, err)
	assert.Equal(t, "org-acme", kept.OrganizationID)
}

func TestNewPersistence_ListFlows(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	first := testFlow("org-acme")
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, first))

	time.Sleep(10 * time.Millisecond)

	second := testFlow("org-acme")
	second.Name = "Order confirmation"
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, second))

	other := testFlow("org-other")
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, other))

	flows, err := p.FlowRepository().ListFlows(ctx, "org-acme")
	require.NoError(t, err)
	require.Len(t, flows, 2)
	assert.Equal(t, "Order confirmation", flows[0].Name)
	assert.Equal(t, "Restock alert", flows[1].Name)
}

func TestNewPersistence_ListActiveFlows(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	active := testFlow("org-acme")
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, active))

	draft := testFlow("org-other")
	draft.Status = models.FlowStatusDraft
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, draft))

	flows, err := p.FlowRepository().ListActiveFlows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, active.ID, flows[0].ID)
	assert.Len(t, flows[0].Nodes, 3, "active flows carry their graphs")
}

func TestNewPersistence_ExecutionLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	flow := testFlow("org-acme")
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, flow))

	execution := &models.FlowExecution{
		FlowID:         flow.ID,
		OrganizationID: "org-acme",
		Status:         models.ExecutionStatusRunning,
		Context:        map[string]any{"quantity": 3},
	}

	err := p.ExecutionRepository().CreateExecution(ctx, execution)
	require.NoError(t, err)
	assert.NotEmpty(t, execution.ID)

	for i, message := range []string{"Execution started", "Condition check evaluated to true", "Notification sent"} {
		entry := models.ExecutionLogEntry{
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
			Message:   message,
			Type:      models.LogTypeInfo,
		}
		require.NoError(t, p.ExecutionRepository().AppendLog(ctx, execution.ID, entry))
	}

	completedAt := time.Now().UTC()
	err = p.ExecutionRepository().UpdateExecutionStatus(ctx, execution.ID,
		models.ExecutionStatusCompleted, &completedAt, map[string]any{"quantity": 3, "notified": true})
	require.NoError(t, err)

	retrieved, err := p.ExecutionRepository().ExecutionByID(ctx, execution.ID, "org-acme")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, retrieved.Status)
	require.NotNil(t, retrieved.CompletedAt)
	require.Len(t, retrieved.Logs, 3)
	assert.Equal(t, "Execution started", retrieved.Logs[0].Message)
	assert.Equal(t, "Notification sent", retrieved.Logs[2].Message)
	assert.Equal(t, true, retrieved.Context["notified"])

	// Terminal records stay terminal.
	err = p.ExecutionRepository().UpdateExecutionStatus(ctx, execution.ID,
		models.ExecutionStatusFailed, &completedAt, nil)
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)

	_, err = p.ExecutionRepository().ExecutionByID(ctx, execution.ID, "org-other")
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestNewPersistence_ListExecutions(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	flow := testFlow("org-acme")
	require.NoError(t, p.FlowRepository().SaveFlow(ctx, flow))

	for i := range 3 {
		execution := &models.FlowExecution{
			FlowID:         flow.ID,
			OrganizationID: "org-acme",
			Status:         models.ExecutionStatusCompleted,
			StartedAt:      time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, p.ExecutionRepository().CreateExecution(ctx, execution))
	}

	executions, err := p.ExecutionRepository().ListExecutions(ctx, flow.ID, "org-acme", 2)
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.True(t, executions[0].StartedAt.After(executions[1].StartedAt), "newest first")

	empty, err := p.ExecutionRepository().ListExecutions(ctx, flow.ID, "org-other", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
