package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
)

// executionRecorder appends entries to the execution's persisted log and
// mirrors them to the service logger. Append failures are logged and
// swallowed so a storage hiccup never aborts a running flow.
type executionRecorder struct {
	executionID string
	executions  persistence.ExecutionRepository
	logger      *slog.Logger
}

func newExecutionRecorder(executionID string, executions persistence.ExecutionRepository, logger *slog.Logger) *executionRecorder {
	return &executionRecorder{
		executionID: executionID,
		executions:  executions,
		logger:      logger.With("execution_id", executionID),
	}
}

func (r *executionRecorder) record(ctx context.Context, message string, logType models.LogType) {
	entry := models.ExecutionLogEntry{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Type:      logType,
	}

	if err := r.executions.AppendLog(ctx, r.executionID, entry); err != nil {
		r.logger.ErrorContext(ctx, "Failed to append execution log", "error", err, "message", message)
	}
}

func (r *executionRecorder) Info(ctx context.Context, message string) {
	r.logger.InfoContext(ctx, message)
	r.record(ctx, message, models.LogTypeInfo)
}

func (r *executionRecorder) Warn(ctx context.Context, message string) {
	r.logger.WarnContext(ctx, message)
	r.record(ctx, message, models.LogTypeWarning)
}

func (r *executionRecorder) Error(ctx context.Context, message string) {
	r.logger.ErrorContext(ctx, message)
	r.record(ctx, message, models.LogTypeError)
}
