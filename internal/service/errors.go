package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrPostingNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id.String(), "posting")
}

func NewErrEmployerNotFound(id uint) *ErrResourceNotFound {
	return NewErrResourceNotFound(fmt.Sprintf("%d", id), "employer")
}

func NewErrEmployerNumberNotFound(number string) *ErrResourceNotFound {
	return NewErrResourceNotFound(number, "employer")
}

type ErrInvalidTransition struct {
	error
}

func NewErrInvalidTransition(id uuid.UUID, action, currentStatus string) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("posting %s: action %q is not allowed from status %q", id, action, currentStatus)}
}

type ErrValidationFailed struct {
	error
}

func NewErrValidationFailed(message string) *ErrValidationFailed {
	return &ErrValidationFailed{fmt.Errorf("validation failed: %s", message)}
}

func NewErrRejectionReasonRequired(id uuid.UUID) *ErrValidationFailed {
	return NewErrValidationFailed(fmt.Sprintf("rejecting posting %s requires a reason", id))
}

type ErrIdentifierSpaceExhausted struct {
	error
}

func NewErrIdentifierSpaceExhausted(attempts int) *ErrIdentifierSpaceExhausted {
	return &ErrIdentifierSpaceExhausted{fmt.Errorf("no free employer number found after %d attempts", attempts)}
}
