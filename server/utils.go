package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/auth"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "component", "server", "err", err)
	}
}

// writeErrorMsg writes a JSON error body with the given status code.
func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps sentinel errors to HTTP status codes. Unknown errors are
// logged and reported as 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrAccessDenied):
		writeErrorMsg(w, http.StatusForbidden, err.Error())
	case errors.Is(err, db.ErrValidation):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeErrorMsg(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("request failed", "component", "server", "err", err)
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes a JSON request body into dst. The body is limited to 1 MiB.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}
