package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy to HTTP responses. Reauthentication
// failures are the one case the frontend acts on distinctly, so they carry
// a fixed error code.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	switch {
	case shared.IsReauthRequired(err):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "reauth_required"})
	case errors.Is(err, shared.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not_authenticated"})
	case errors.Is(err, shared.ErrBadRequest), errors.Is(err, shared.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
	case errors.Is(err, shared.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_state"})
	case errors.Is(err, shared.ErrTokenExchange):
		logger.Error("token exchange failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "token_exchange_failed"})
	case errors.Is(err, shared.ErrAPIRequest):
		logger.Error("upstream request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream_error"})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	}
}
