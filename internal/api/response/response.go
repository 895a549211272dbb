// internal/api/response/response.go
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/newthinker/folio/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	write(w, status, resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	resp := ErrorResponse{Error: detail}
	write(w, status, resp)
}

// Fail writes err with the status StatusFor picks.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}

// StatusFor maps an error to an HTTP status by its core code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrUnknownModel),
		errors.Is(err, core.ErrNoMessages),
		errors.Is(err, core.ErrNoJSON),
		errors.Is(err, core.ErrCodeBlockJSON),
		errors.Is(err, core.ErrInvalidKey),
		errors.Is(err, core.ErrUnknownEvent):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized),
		errors.Is(err, core.ErrTokenInvalid),
		errors.Is(err, core.ErrTokenExpired),
		errors.Is(err, core.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrSignInDenied):
		return http.StatusForbidden
	case errors.Is(err, core.ErrObjectNotFound),
		errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrProviderFailed),
		errors.Is(err, core.ErrEmailFailed),
		errors.Is(err, core.ErrStorageFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	sonic.ConfigStd.NewEncoder(w).Encode(v)
}
