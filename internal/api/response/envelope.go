// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
	"blogflow/pkg/metrics"
)

// Envelope is the uniform response body. ErrorCode is 0 on success.
type Envelope struct {
	ErrorCode int    `json:"error_code"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
}

func Success(data any) Envelope {
	return Envelope{Data: data}
}

func SuccessWithMessage(data any, message string) Envelope {
	return Envelope{Data: data, Message: message}
}

// Failure builds the envelope for err. Errors without a business kind are
// reported as internal errors and their text is never exposed.
func Failure(err error) (int, Envelope) {
	kind := domain.KindOf(err)
	entry := kind.Entry()

	message := entry.Message
	var be *domain.Error
	if errors.As(err, &be) {
		message = be.Message()
	}

	return entry.Status, Envelope{ErrorCode: entry.Code, Message: message}
}

func JSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// Message answers status with a message and no data.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Message: message})
}

// Error translates err once at the boundary. Internal causes are logged with
// the request's ids; business errors are logged at warn level.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, body := Failure(err)
	kind := domain.KindOf(err)
	metrics.RecordBusinessError(kind.String())

	fields := map[string]interface{}{
		"kind":   kind.String(),
		"code":   body.ErrorCode,
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "Request failed", fields)
	} else {
		log.WarnContext(r.Context(), "Request rejected", fields)
	}

	JSON(w, status, body)
}
