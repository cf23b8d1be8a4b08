package http

import (
	"errors"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every JSON response. Error is the human-readable rejection and
// Code its machine-readable kind; both are set only when Success is false.
type Envelope struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeConflict      = "conflict"
	codeInternalError = "internal_error"
)

func (s *Server) ok(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{
		Success:   true,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Data:      data,
	})
}

func (s *Server) fail(c echo.Context, status int, code, message string, data any) error {
	return c.JSON(status, Envelope{
		Success:   false,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Data:      data,
		Error:     message,
		Code:      code,
	})
}

// failureStatus maps a reconciliation rejection to its HTTP status. A vendor never
// receives a 2xx for a rejected signal.
func failureStatus(kind commands.FailureKind) int {
	switch kind {
	case commands.FailureSignatureValidation:
		return http.StatusUnauthorized
	case commands.FailureMalformedSignal:
		return http.StatusBadRequest
	case commands.FailureOrderNotFound:
		return http.StatusNotFound
	case commands.FailureVendorMismatch, commands.FailureInvalidTransition:
		return http.StatusConflict
	case commands.FailureUnknownVendorStatus:
		return http.StatusUnprocessableEntity
	case commands.FailurePersistenceConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorStatus maps validation and repository errors returned by handlers.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, errs.ErrObjectAlreadyExists):
		return http.StatusConflict, codeConflict
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest, codeBadRequest
	default:
		return http.StatusInternalServerError, codeInternalError
	}
}
