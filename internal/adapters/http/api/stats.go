package api

import (
	"net/http"
)

// StatsProvider supplies runtime statistics for the stats endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves service runtime statistics.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler backed by provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats returns current service statistics as JSON.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "stats_unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.GetStats())
}
