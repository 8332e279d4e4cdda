package api

import (
	"net/http"
	"strconv"
	"strings"
)

// LeaderboardHandler serves ranked snapshot reads.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewLeaderboardHandler creates a handler backed by deps.
func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

type leaderboardResponse struct {
	ChallengeID string  `json:"challenge_id"`
	Entries     []Entry `json:"entries"`
}

// HandleGetLeaderboard returns the current snapshot for a challenge.
// Route shape: GET /leaderboard/{challenge_id}[?limit=N].
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	challengeID := strings.TrimPrefix(r.URL.Path, "/leaderboard/")
	if challengeID == "" || strings.Contains(challengeID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_challenge_id",
			NewKind("parse leaderboard path", ErrBadRequest))
		return
	}

	limit := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit",
				NewKind("parse limit", ErrBadRequest))
			return
		}
		if n < limit {
			limit = n
		}
	}

	entries, err := h.deps.Leaderboard(r.Context(), challengeID, limit)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "leaderboard_failed", Wrap("read leaderboard", err))
		return
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{ChallengeID: challengeID, Entries: entries})
}
