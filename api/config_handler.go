package api

import (
	"net/http"

	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/logging"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
// Secrets are never included; see /config/keys for their status.
type ConfigResponse struct {
	Summary []string `json:"summary"`
}

// handleGetConfig returns a redacted summary of the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ConfigResponse{Summary: logging.ConfigSummaryLines(s.cfg)},
	})
}

// handleGetConfigKeys returns the status of all secrets.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
