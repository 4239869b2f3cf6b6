package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger logrus.FieldLogger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.WithError(err).Warn("failed to encode JSON response")
	}
}

// WriteError maps err onto a status code and writes it. Server-side failures
// are logged and their details withheld from the client.
func WriteError(logger logrus.FieldLogger, w http.ResponseWriter, err error) {
	status := StatusForError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).WithField("status", status).Error("request failed")
		}
		message = http.StatusText(status)
	}
	WriteJSON(logger, w, status, ErrorResponse{Error: message})
}

// StatusForError is the HTTP status for an error from the directory services.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConcurrentUpdateConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
