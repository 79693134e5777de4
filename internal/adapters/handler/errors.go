package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps the core error kinds onto HTTP status codes. Conflict only
// reaches here after the services exhausted their retry budget, so it is
// reported as a transient failure the client may retry.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: validationErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "request not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not allowed to act on this request"})
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: "request has expired"})
	case errors.Is(err, domain.ErrAlreadyTerminal):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "request is already finalized"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request is busy, retry shortly"})
	default:
		log.Printf("handler: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
