package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/google/uuid"
)

// ExecutionRepository stores one JSON document per execution under
// <root>/<org>/executions/<id>.json. A mutex serializes the
// read-modify-write of log appends so interleaved appends keep their order.
type ExecutionRepository struct {
	root string
	mu   sync.Mutex
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (r *ExecutionRepository) executionsDir(organizationID string) string {
	return filepath.Join(r.root, organizationID, "executions")
}

func (r *ExecutionRepository) executionPath(organizationID, id string) string {
	return filepath.Join(r.executionsDir(organizationID), id+".json")
}

// CreateExecution writes a new execution record.
func (r *ExecutionRepository) CreateExecution(_ context.Context, execution *models.FlowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		execution.ID = id.String()
	}

	if execution.StartedAt.IsZero() {
		execution.StartedAt = time.Now().UTC()
	}

	if execution.Logs == nil {
		execution.Logs = make([]models.ExecutionLogEntry, 0)
	}

	return r.writeExecution(execution)
}

// UpdateExecutionStatus applies the terminal transition and the final
// context snapshot. Already-terminal records are left untouched.
func (r *ExecutionRepository) UpdateExecutionStatus(_ context.Context, id string, status models.ExecutionStatus, completedAt *time.Time, execContext map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, err := r.findExecution(id)
	if err != nil {
		return err
	}

	// A set CompletedAt marks the record terminal; the status value alone
	// cannot, because simulated is both an initial and a terminal state.
	if execution.CompletedAt != nil {
		return persistence.ErrExecutionNotFound
	}

	execution.Status = status
	execution.CompletedAt = completedAt
	execution.Context = execContext

	return r.writeExecution(execution)
}

// AppendLog attaches one entry to the execution's log.
func (r *ExecutionRepository) AppendLog(_ context.Context, executionID string, entry models.ExecutionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, err := r.findExecution(executionID)
	if err != nil {
		return err
	}

	execution.Logs = append(execution.Logs, entry)

	return r.writeExecution(execution)
}

// ExecutionByID returns one execution scoped to the organization.
func (r *ExecutionRepository) ExecutionByID(_ context.Context, id, organizationID string) (*models.FlowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.readExecution(organizationID, id)
}

// ListExecutions returns the flow's most recent executions, newest first.
func (r *ExecutionRepository) ListExecutions(_ context.Context, flowID, organizationID string, limit int) ([]*models.FlowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	entries, err := os.ReadDir(r.executionsDir(organizationID))
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*models.FlowExecution, 0), nil
		}

		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.FlowExecution, 0)

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		execution, err := r.readExecution(organizationID, entry.Name()[:len(entry.Name())-5])
		if err != nil {
			return nil, err
		}

		if execution.FlowID == flowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	if len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}

// findExecution locates a record by id without knowing its organization.
// Log appends and status updates arrive keyed by execution id alone.
func (r *ExecutionRepository) findExecution(id string) (*models.FlowExecution, error) {
	orgs, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan root directory: %w", err)
	}

	for _, org := range orgs {
		if !org.IsDir() {
			continue
		}

		execution, err := r.readExecution(org.Name(), id)
		if err == nil {
			return execution, nil
		}

		if !persistence.IsExecutionNotFound(err) {
			return nil, err
		}
	}

	return nil, persistence.ErrExecutionNotFound
}

func (r *ExecutionRepository) readExecution(organizationID, id string) (*models.FlowExecution, error) {
	data, err := os.ReadFile(r.executionPath(organizationID, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution file: %w", err)
	}

	var execution models.FlowExecution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) writeExecution(execution *models.FlowExecution) error {
	dir := r.executionsDir(execution.OrganizationID)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	if err := os.WriteFile(r.executionPath(execution.OrganizationID, execution.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution file: %w", err)
	}

	return nil
}
