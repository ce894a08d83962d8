package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robertarktes/college-event-tickets/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Sold
// out gets its own code so clients can render it instead of a retry
// prompt; retryable storage failures come back 503.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrSoldOut):
		writeJSON(w, http.StatusConflict, errorBody{Error: "not enough tickets remaining", Code: "sold_out"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case domain.Retryable(err):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "temporarily unavailable, retry", Code: "retryable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
