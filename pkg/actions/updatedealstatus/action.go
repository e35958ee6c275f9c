package updatedealstatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/template"
)

// UpdateDealStatusAction moves a deal to a new status. The deal id comes
// from the params or, when absent there, from the dealId context key; a run
// offering neither fails the step.
type UpdateDealStatusAction struct {
	crm    protocol.CRM
	DealID string
	Status string
}

func NewAction(crm protocol.CRM, params map[string]any) (*UpdateDealStatusAction, error) {
	cfg := models.ActionConfig{Params: params}

	status := cfg.ParamString("status")
	if status == "" {
		return nil, errors.New("UPDATE_DEAL_STATUS requires a status param")
	}

	return &UpdateDealStatusAction{
		crm:    crm,
		DealID: cfg.ParamString("dealId"),
		Status: status,
	}, nil
}

func (a *UpdateDealStatusAction) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if executionCtx.OrganizationID == "" {
		return nil, errors.New("execution has no organization context")
	}

	dealID := a.DealID
	if dealID == "" {
		dealID = template.Stringify(executionCtx.Data["dealId"])
	}

	if dealID == "" {
		return nil, errors.New("UPDATE_DEAL_STATUS has no dealId in params or context")
	}

	if err := a.crm.UpdateDealStatus(ctx, executionCtx.OrganizationID, dealID, a.Status); err != nil {
		return nil, fmt.Errorf("failed to update deal %s: %w", dealID, err)
	}

	executionCtx.Recorder.Info(ctx, fmt.Sprintf("Deal %s moved to %s", dealID, a.Status))
	logger.InfoContext(ctx, "Deal status updated",
		"deal_id", dealID,
		"status", a.Status,
	)

	return nil, nil
}
