package notifyuser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// NotifyUserAction creates an in-app notification. Priority defaults to
// "normal" when the flow builder leaves it out.
type NotifyUserAction struct {
	notifications protocol.Notifications
	UserID        string
	Title         string
	Message       string
	Priority      string
}

func NewAction(notifications protocol.Notifications, params map[string]any) (*NotifyUserAction, error) {
	cfg := models.ActionConfig{Params: params}

	userID := cfg.ParamString("userId")
	if userID == "" {
		return nil, errors.New("NOTIFY_USER requires a userId param")
	}

	priority := cfg.ParamString("priority")
	if priority == "" {
		priority = "normal"
	}

	return &NotifyUserAction{
		notifications: notifications,
		UserID:        userID,
		Title:         cfg.ParamString("title"),
		Message:       cfg.ParamString("message"),
		Priority:      priority,
	}, nil
}

func (a *NotifyUserAction) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if executionCtx.OrganizationID == "" {
		return nil, errors.New("execution has no organization context")
	}

	notification := protocol.Notification{
		OrganizationID: executionCtx.OrganizationID,
		UserID:         a.UserID,
		Title:          a.Title,
		Message:        a.Message,
		Priority:       a.Priority,
	}
	if err := a.notifications.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification for user %s: %w", a.UserID, err)
	}

	executionCtx.Recorder.Info(ctx, fmt.Sprintf("Notification sent to user %s: %s", a.UserID, a.Title))
	logger.InfoContext(ctx, "Notification created",
		"user_id", a.UserID,
		"priority", a.Priority,
	)

	return nil, nil
}
