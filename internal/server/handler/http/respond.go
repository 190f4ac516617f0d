package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atinyakov/CragLog/internal/service"
	"github.com/atinyakov/CragLog/internal/storage"
	"github.com/atinyakov/CragLog/internal/validation"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error  string                   `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
	Retry  bool                     `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// decode reads a JSON body into dst and validates it. On failure it
// writes a 400 response and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeBody(r, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
		return false
	}
	return true
}

// writeError maps service and storage errors to HTTP statuses. Errors
// outside the known taxonomy are logged and reported as 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, storage.ErrSerialization):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "concurrent update, try again", Retry: true})
	case errors.Is(err, storage.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
