package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/messagely/backend/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps the sentinel error taxonomy onto HTTP status codes.
// Anything unrecognized is reported as an internal error without exposing
// the underlying message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeErrorMessage(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
