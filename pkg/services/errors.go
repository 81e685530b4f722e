// Package services provides the application layer over persistence: workflow
// CRUD, canvas compile/save orchestration, and the agent registry.
package services

import (
	"errors"
	"fmt"

	"github.com/flowplane/flowplane/pkg/persistence"
)

// Not-found errors (404).
var (
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
	ErrAgentNotFound    = persistence.ErrAgentNotFound
)

// Validation errors (400/422).
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidSortField  = persistence.ErrInvalidSortField
	ErrInvalidSortOrder  = errors.New("invalid sort order")
	ErrInvalidWorkflow   = errors.New("workflow definition failed validation")
	ErrWorkflowNil       = errors.New("workflow cannot be nil")
	ErrCanvasNil         = errors.New("canvas graph cannot be nil")
	ErrAgentNil          = errors.New("agent cannot be nil")
	ErrAgentNameRequired = errors.New("agent name is required")
)

// Conflict errors (409).
var (
	ErrWorkflowExists = errors.New("workflow id already exists")
	ErrAgentExists    = errors.New("agent id already exists")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
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

// IsValidationError checks if an error should map to HTTP 400/422.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidWorkflow) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrCanvasNil) ||
		errors.Is(err, ErrAgentNil) ||
		errors.Is(err, ErrAgentNameRequired)
}

// IsNotFoundError checks if an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrAgentNotFound)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowExists) ||
		errors.Is(err, ErrAgentExists)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
