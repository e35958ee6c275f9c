package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/google/uuid"
)

// ExecutionRepository handles execution-record database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// CreateExecution inserts a new execution record.
func (r *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.FlowExecution) error {
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

	logsJSON, err := json.Marshal(execution.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal logs: %w", err)
	}

	contextJSON, err := json.Marshal(execution.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	query := `
		INSERT INTO flow_executions (id, flow_id, organization_id, status, started_at, completed_at, logs, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.FlowID,
		execution.OrganizationID,
		execution.Status,
		execution.StartedAt,
		execution.CompletedAt,
		logsJSON,
		contextJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	return nil
}

// UpdateExecutionStatus applies the terminal transition and persists the
// final context snapshot. Already-terminal records are left untouched.
func (r *ExecutionRepository) UpdateExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, completedAt *time.Time, execContext map[string]any) error {
	contextJSON, err := json.Marshal(execContext)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	// completed_at distinguishes an in-flight simulated run from a finished
	// one; the status value alone cannot.
	query := `
		UPDATE flow_executions
		SET status = $2, completed_at = $3, context = $4
		WHERE id = $1 AND completed_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, status, completedAt, contextJSON)
	if err != nil {
		return fmt.Errorf("failed to update execution status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrExecutionNotFound
	}

	return nil
}

// AppendLog attaches one entry to the execution's log. The append happens in
// a single UPDATE so interleaved writers never lose entries.
func (r *ExecutionRepository) AppendLog(ctx context.Context, executionID string, entry models.ExecutionLogEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	query := `
		UPDATE flow_executions
		SET logs = logs || $2::jsonb
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, executionID, entryJSON)
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrExecutionNotFound
	}

	return nil
}

// ExecutionByID returns one execution scoped to the organization.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id, organizationID string) (*models.FlowExecution, error) {
	query := `
		SELECT id, flow_id, organization_id, status, started_at, completed_at, logs, context
		FROM flow_executions
		WHERE id = $1 AND organization_id = $2
	`

	execution, err := r.scanExecution(r.db.QueryRowContext(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// ListExecutions returns the flow's most recent executions, newest first.
func (r *ExecutionRepository) ListExecutions(ctx context.Context, flowID, organizationID string, limit int) ([]*models.FlowExecution, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, flow_id, organization_id, status, started_at, completed_at, logs, context
		FROM flow_executions
		WHERE flow_id = $1 AND organization_id = $2
		ORDER BY started_at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, flowID, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.FlowExecution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) scanExecution(scanner rowScanner) (*models.FlowExecution, error) {
	var (
		execution   models.FlowExecution
		completedAt sql.NullTime
		logsJSON    []byte
		contextJSON []byte
	)

	err := scanner.Scan(
		&execution.ID,
		&execution.FlowID,
		&execution.OrganizationID,
		&execution.Status,
		&execution.StartedAt,
		&completedAt,
		&logsJSON,
		&contextJSON,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	if logsJSON != nil {
		if err := json.Unmarshal(logsJSON, &execution.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}

	if contextJSON != nil {
		if err := json.Unmarshal(contextJSON, &execution.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}

	return &execution, nil
}
