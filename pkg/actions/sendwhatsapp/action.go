package sendwhatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/template"
)

// SendWhatsAppAction renders the message template against the execution
// context and dispatches it. Absent placeholder keys render as empty
// strings so a partially filled context still produces deliverable text.
type SendWhatsAppAction struct {
	messenger protocol.Messenger
	To        string
	Message   string
}

func NewAction(messenger protocol.Messenger, params map[string]any) (*SendWhatsAppAction, error) {
	cfg := models.ActionConfig{Params: params}

	to := cfg.ParamString("to")
	if to == "" {
		return nil, errors.New("SEND_WHATSAPP requires a to param")
	}

	message := cfg.ParamString("message")
	if message == "" {
		return nil, errors.New("SEND_WHATSAPP requires a message param")
	}

	return &SendWhatsAppAction{
		messenger: messenger,
		To:        to,
		Message:   message,
	}, nil
}

func (a *SendWhatsAppAction) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if executionCtx.OrganizationID == "" {
		return nil, errors.New("execution has no organization context")
	}

	text := template.Substitute(a.Message, executionCtx.Data)

	if err := a.messenger.SendMessage(ctx, executionCtx.OrganizationID, a.To, text); err != nil {
		return nil, fmt.Errorf("failed to send WhatsApp message to %s: %w", a.To, err)
	}

	executionCtx.Recorder.Info(ctx, fmt.Sprintf("WhatsApp message sent to %s", a.To))
	logger.InfoContext(ctx, "WhatsApp message dispatched", "to", a.To)

	return nil, nil
}
