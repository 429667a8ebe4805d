package handler

import (
	"errors"

	"pantryhub-api/internal/service"
	"pantryhub-api/pkg/apierror"
)

// serviceError maps service-layer errors to structured API errors. Business
// denials keep their message verbatim; anything unrecognized is treated as a
// transient store failure, the only class a client should retry.
func serviceError(err error) error {
	switch {
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return apierror.NotFound(err.Error())
	case errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrInsufficientStock):
		return apierror.Conflict(err.Error())
	case errors.Is(err, service.ErrNoItems),
		errors.Is(err, service.ErrInvalidInput):
		return apierror.BadRequest(err.Error())
	default:
		return apierror.ServiceUnavailable("store temporarily unavailable")
	}
}
