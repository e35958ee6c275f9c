// Package services provides the business operations behind the HTTP
// surface: flow management and execution dispatch.
package services

import (
	"errors"
	"fmt"
)

// Validation errors map to 400 responses.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrFlowNameRequired     = errors.New("flow name is required")
	ErrNodesRequired        = errors.New("flow must have at least one node")
	ErrUnknownEdgeEndpoint  = errors.New("edge references a node not present in the flow")
	ErrInvalidActionParams  = errors.New("action params do not match the action schema")
	ErrOrganizationRequired = errors.New("organization id is required")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError reports whether err should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrUnknownEdgeEndpoint) ||
		errors.Is(err, ErrInvalidActionParams) ||
		errors.Is(err, ErrOrganizationRequired)
}

func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
