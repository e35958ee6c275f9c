package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/persistence/file"
	"github.com/fluxohq/fluxo/pkg/registry"
	"github.com/fluxohq/fluxo/pkg/services"
	"github.com/fluxohq/fluxo/pkg/testutil"
	"github.com/fluxohq/fluxo/pkg/web"
)

// capturingBus records published events; nothing consumes them.
type capturingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *capturingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *capturingBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }
func (b *capturingBus) Subscribe(context.Context) error                      { return nil }
func (b *capturingBus) Close() error                                         { return nil }
func (b *capturingBus) GenerateID() string                                   { return "test" }

func (b *capturingBus) published() []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]eventbus.Event(nil), b.events...)
}

type testEnv struct {
	app   *fiber.App
	store persistence.Persistence
	bus   *capturingBus
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	bus := &capturingBus{}
	reg := registry.NewRegistry(slog.Default())
	flowService := services.NewFlow(store, reg)
	executionService := services.NewExecution(store, bus)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(flowService, executionService, validate)

	app := fiber.New()

	f := app.Group("/flows")
	f.Get("/", handlers.GetFlows)
	f.Post("/", handlers.SaveFlow)
	f.Get("/:id", handlers.GetFlow)
	f.Post("/:id/execute", handlers.ExecuteFlow)
	f.Get("/:id/executions", handlers.GetExecutions)

	return &testEnv{app: app, store: store, bus: bus}
}

func doRequest(t *testing.T, app *fiber.App, method, path, organizationID string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if organizationID != "" {
		req.Header.Set(web.OrganizationHeader, organizationID)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func TestSaveFlowAndGetFlow(t *testing.T) {
	env := setupTestApp(t)

	save := web.SaveFlowRequest{
		Name:        "Stock replenishment",
		Description: "Refill stock on low inventory",
		Nodes: []web.NodeRequest{
			{ID: "n1", Type: "trigger", Config: map[string]any{"event": "manual"}},
			{ID: "n2", Type: "action", Config: map[string]any{"action": "UPDATE_STOCK", "params": map[string]any{"productId": "p1", "quantity": 10}}},
		},
		Edges: []web.EdgeRequest{
			{ID: "e1", SourceNodeID: "n1", TargetNodeID: "n2"},
		},
	}

	resp, raw := doRequest(t, env.app, http.MethodPost, "/flows", "org-1", save)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created web.SaveFlowResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.FlowID)

	resp, raw = doRequest(t, env.app, http.MethodGet, "/flows/"+created.FlowID, "org-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var flow models.FlowDefinition
	require.NoError(t, json.Unmarshal(raw, &flow))
	assert.Equal(t, "Stock replenishment", flow.Name)
	assert.Len(t, flow.Nodes, 2)
	assert.Len(t, flow.Edges, 1)
}

func TestSaveFlowValidation(t *testing.T) {
	env := setupTestApp(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{
			name:   "missing name",
			body:   web.SaveFlowRequest{Description: "no name"},
			status: http.StatusBadRequest,
		},
		{
			name: "edge references unknown node",
			body: web.SaveFlowRequest{
				Name: "Broken graph",
				Nodes: []web.NodeRequest{
					{ID: "n1", Type: "trigger"},
				},
				Edges: []web.EdgeRequest{
					{ID: "e1", SourceNodeID: "n1", TargetNodeID: "ghost"},
				},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "invalid node type",
			body: web.SaveFlowRequest{
				Name: "Bad node type",
				Nodes: []web.NodeRequest{
					{ID: "n1", Type: "teleport"},
				},
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doRequest(t, env.app, http.MethodPost, "/flows", "org-1", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMissingOrganizationHeader(t *testing.T) {
	env := setupTestApp(t)

	resp, _ := doRequest(t, env.app, http.MethodGet, "/flows", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFlowIsOrganizationScoped(t *testing.T) {
	env := setupTestApp(t)

	flow := testutil.NewFlow("flow-1", "org-1").Trigger("n1").Build()
	require.NoError(t, env.store.FlowRepository().SaveFlow(context.Background(), flow))

	resp, _ := doRequest(t, env.app, http.MethodGet, "/flows/flow-1", "org-2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, env.app, http.MethodGet, "/flows/flow-1", "org-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExecuteFlowRespondsRunningImmediately(t *testing.T) {
	env := setupTestApp(t)

	// Nothing consumes the bus, and the flow does not even exist. The
	// endpoint still acknowledges with "running".
	resp, raw := doRequest(t, env.app, http.MethodPost, "/flows/anything/execute", "org-1",
		web.ExecuteFlowRequest{Payload: map[string]any{"total": 5}})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack web.ExecuteFlowResponse
	require.NoError(t, json.Unmarshal(raw, &ack))
	assert.Equal(t, "running", ack.Status)

	published := env.bus.published()
	require.Len(t, published, 1)

	request, ok := published[0].(events.FlowExecutionRequested)
	require.True(t, ok)
	assert.Equal(t, "anything", request.FlowID)
	assert.Equal(t, "org-1", request.OrganizationID)
	assert.False(t, request.Simulated)
}

func TestExecuteFlowSimulatedFlag(t *testing.T) {
	env := setupTestApp(t)

	resp, _ := doRequest(t, env.app, http.MethodPost, "/flows/f/execute", "org-1",
		web.ExecuteFlowRequest{IsSimulated: true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	published := env.bus.published()
	require.Len(t, published, 1)

	request, ok := published[0].(events.FlowExecutionRequested)
	require.True(t, ok)
	assert.True(t, request.Simulated)
}

func TestGetExecutionsReturnsHistory(t *testing.T) {
	env := setupTestApp(t)

	flow := testutil.NewFlow("flow-1", "org-1").Trigger("n1").Build()
	ctx := context.Background()
	require.NoError(t, env.store.FlowRepository().SaveFlow(ctx, flow))

	for range 3 {
		execution := &models.FlowExecution{
			FlowID:         "flow-1",
			OrganizationID: "org-1",
			Status:         models.ExecutionStatusCompleted,
		}
		require.NoError(t, env.store.ExecutionRepository().CreateExecution(ctx, execution))
	}

	resp, raw := doRequest(t, env.app, http.MethodGet, "/flows/flow-1/executions", "org-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var executions []models.FlowExecution
	require.NoError(t, json.Unmarshal(raw, &executions))
	assert.Len(t, executions, 3)

	// Another tenant sees nothing.
	resp, raw = doRequest(t, env.app, http.MethodGet, "/flows/flow-1/executions", "org-2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &executions))
	assert.Empty(t, executions)
}

func TestListFlowsOrderedByUpdate(t *testing.T) {
	env := setupTestApp(t)

	ctx := context.Background()
	first := testutil.NewFlow("flow-a", "org-1").Name("First").Trigger("n1").Build()
	require.NoError(t, env.store.FlowRepository().SaveFlow(ctx, first))

	second := testutil.NewFlow("flow-b", "org-1").Name("Second").Trigger("n1").Build()
	require.NoError(t, env.store.FlowRepository().SaveFlow(ctx, second))

	resp, raw := doRequest(t, env.app, http.MethodGet, "/flows", "org-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var flows []models.FlowDefinition
	require.NoError(t, json.Unmarshal(raw, &flows))
	require.Len(t, flows, 2)
	assert.Equal(t, "Second", flows[0].Name)
}
