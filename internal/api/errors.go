package api

import (
	"errors"
	"net/http"

	"github.com/mipractice/mipractice/internal/analysis"
	"github.com/mipractice/mipractice/internal/assistant"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "bad request"}
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "not found"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "internal server error"}
	ErrValidation     = &AppError{Code: http.StatusBadRequest, Message: "validation error"}
)

func NewBadRequestError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

// MapError translates orchestration-layer errors into HTTP responses.
// Timeouts map to 504, everything remote or malformed maps to 500, and the
// remote-supplied failure detail is carried under details so callers can see
// the provider's reason unmodified.
func MapError(err error) *AppError {
	var runErr *assistant.RunFailedError
	if errors.As(err, &runErr) {
		return &AppError{
			Code:    http.StatusInternalServerError,
			Message: "run failed",
			Details: map[string]string{
				"status": string(runErr.Status),
				"error":  runErr.Detail,
			},
		}
	}

	var timeoutErr *assistant.TimeoutError
	if errors.As(err, &timeoutErr) {
		return &AppError{
			Code:    http.StatusGatewayTimeout,
			Message: "analysis timed out",
			Details: map[string]string{
				"timeout": timeoutErr.Budget.String(),
			},
		}
	}

	var remoteErr *assistant.RemoteServiceError
	if errors.As(err, &remoteErr) {
		return &AppError{
			Code:    http.StatusInternalServerError,
			Message: "remote service error",
			Details: map[string]string{
				"operation": remoteErr.Op,
				"error":     remoteErr.Unwrap().Error(),
			},
		}
	}

	var parseErr *analysis.ParseError
	if errors.As(err, &parseErr) {
		return &AppError{
			Code:    http.StatusInternalServerError,
			Message: "error parsing analysis results",
			Details: map[string]string{"error": parseErr.Error()},
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer
}

func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONAppError(w, appErr)
		return
	}
	JSONErrorMessage(w, http.StatusInternalServerError, "internal server error")
}
