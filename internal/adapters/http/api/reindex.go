package api

import (
	"errors"
	"net/http"
	"strings"

	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/pkg/logger"
)

// ReindexHandler exposes administrative reindex triggers.
type ReindexHandler struct {
	deps Dependencies
}

// NewReindexHandler creates a handler backed by deps.
func NewReindexHandler(deps Dependencies) *ReindexHandler {
	return &ReindexHandler{deps: deps}
}

// HandleReindexOne rebuilds the leaderboard snapshot for one challenge.
// Route shape: POST /reindex/{challenge_id}[?table=table_id].
func (h *ReindexHandler) HandleReindexOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	challengeID := strings.TrimPrefix(r.URL.Path, "/reindex/")
	if challengeID == "" || strings.Contains(challengeID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_challenge_id",
			NewKind("parse reindex path", ErrBadRequest))
		return
	}

	tableID := r.URL.Query().Get("table")
	if tableID == "" {
		tableID = h.deps.ActiveTableID()
	}
	if tableID == "" {
		// No override and no configured table: a configuration fault,
		// not a lookup miss.
		writeReindexError(w, app.ErrNoActiveTable)
		return
	}

	ctx := r.Context()
	outcome, err := h.deps.ReindexOne(ctx, challengeID, tableID)
	if err != nil {
		logger.Get().Error(ctx, "reindex failed",
			logger.String("challenge_id", challengeID),
			logger.String("table_id", tableID),
			logger.Error(err))
		writeReindexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// HandleReindexAll rebuilds snapshots for every known challenge.
// Individual failures are reported in the summary rather than aborting.
func (h *ReindexHandler) HandleReindexAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	ctx := r.Context()
	summary, err := h.deps.ReindexAll(ctx)
	if err != nil {
		logger.Get().Error(ctx, "reindex-all failed", logger.Error(err))
		writeReindexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeReindexError maps domain failures to HTTP statuses. Misconfiguration
// is distinguished from transient store trouble so callers know whether a
// retry can help.
func writeReindexError(w http.ResponseWriter, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ranking.ErrEmptyPointTable),
		errors.Is(err, app.ErrNoActiveTable):
		writeError(w, http.StatusUnprocessableEntity, "configuration_error", err)
	default:
		// Exhausted retries against the store; it is an upstream dependency
		// from the caller's perspective.
		writeError(w, http.StatusBadGateway, "reindex_failed", err)
	}
}
