package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/podium/pkg/metrics"
)

// HealthHandler reports liveness and exposes Prometheus metrics.
type HealthHandler struct {
	promHandler http.Handler
}

// NewHealthHandler creates a health handler bound to the service registry.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		promHandler: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth serves the metrics exposition; a 200 response doubles as the
// liveness signal.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	h.promHandler.ServeHTTP(w, r)
}
