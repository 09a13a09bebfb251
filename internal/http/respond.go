package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"banko/internal/core"
	"banko/internal/storage"
)

// errorBody is the envelope every failed request gets: a message plus
// the operation that produced it, so client logs can tell a failed
// login from a failed listing without parsing prose.
type errorBody struct {
	Error  string `json:"error"`
	Source string `json:"source"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, source, msg string) {
	respondJSON(w, status, errorBody{Error: msg, Source: source})
}

// respondDomainError maps domain errors onto HTTP statuses. Unknown
// errors become an opaque 500; the real cause goes to the log only.
func respondDomainError(w http.ResponseWriter, r *http.Request, source string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, source, "not found")
	case errors.Is(err, core.ErrBadCredentials):
		respondError(w, http.StatusUnauthorized, source, "invalid email or password")
	case errors.Is(err, core.ErrEmailTaken):
		respondError(w, http.StatusConflict, source, "email already registered")
	case errors.Is(err, core.ErrNoUser):
		respondError(w, http.StatusUnauthorized, source, "not authenticated")
	case errors.Is(err, storage.ErrBadCursor):
		respondError(w, http.StatusBadRequest, source, "malformed cursor")
	case errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrShortPassword):
		respondError(w, http.StatusUnprocessableEntity, source, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "source", source, "error", err)
		respondError(w, http.StatusInternalServerError, source, "internal error")
	}
}
