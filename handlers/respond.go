package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/garage/models"
)

// errorBody is the uniform JSON error envelope. Detail is suppressed outside
// development mode so internals never leak to clients.
type errorBody struct {
	TraceID   string `json:"traceId"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := errorBody{
		TraceID:   uuid.New().String(),
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err != nil && os.Getenv("APP_ENV") == "development" {
		body.Detail = err.Error()
	}
	writeJSON(w, status, body)
}

// parseUUIDParam parses a UUID from a request body or path segment.
func parseUUIDParam(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// writeServiceError maps service layer errors to status codes: record-not-found
// (or tenant mismatch) to 404, illegal status transitions to 409, anything
// else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var invalid *models.InvalidTransitionError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, invalid.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
