// Package web provides the HTTP handlers for the flow API.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/services"
)

type APIHandlers struct {
	flowService      *services.Flow
	executionService *services.Execution
	validator        *validator.Validate
}

func NewAPIHandlers(
	flowService *services.Flow,
	executionService *services.Execution,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		flowService:      flowService,
		executionService: executionService,
		validator:        validator,
	}
}

func organizationID(c fiber.Ctx) string {
	return c.Get(OrganizationHeader)
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	flows, err := h.flowService.ListFlows(c.Context(), orgID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flows)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.flowService.GetFlow(c.Context(), id, orgID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) SaveFlow(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	var req SaveFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flowID, err := h.flowService.SaveFlow(c.Context(), orgID, services.SaveFlowRequest{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.FlowStatus(req.Status),
		Nodes:       toModelNodes(req.ID, req.Nodes),
		Edges:       toModelEdges(req.ID, req.Edges),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SaveFlowResponse{FlowID: flowID})
}

// ExecuteFlow acknowledges the request with status "running" before any
// node executes. Outcomes surface only in the execution history.
func (h *APIHandlers) ExecuteFlow(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	var req ExecuteFlowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.executionService.ExecuteFlow(c.Context(), id, orgID, req.Payload, req.IsSimulated); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(ExecuteFlowResponse{Status: "running"})
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	executions, err := h.executionService.ListExecutions(c.Context(), id, orgID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	id := c.Params("executionId")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.executionService.GetExecution(c.Context(), id, orgID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.flowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Fluxo API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Fluxo API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
