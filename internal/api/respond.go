package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GiftLink-io/giftlink/internal/auth"
	"github.com/GiftLink-io/giftlink/internal/database"
	"github.com/GiftLink-io/giftlink/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends a JSON error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps an account/store failure to a stable HTTP outcome.
// Infrastructure detail is logged by the caller, never echoed to clients.
func (a *Api) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": ve.Fields})
		return
	}

	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email id already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not Found")
	default:
		var connErr *database.ConnectionError
		if errors.As(err, &connErr) {
			a.logger.Error("database unavailable", "error", err, "path", r.URL.Path)
			writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		a.logger.Error("request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
