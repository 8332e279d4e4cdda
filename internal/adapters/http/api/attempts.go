package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/podium/pkg/logger"
)

// AttemptsHandler accepts evaluated attempt outcomes for ingestion.
type AttemptsHandler struct {
	deps Dependencies
}

// NewAttemptsHandler creates a handler backed by deps.
func NewAttemptsHandler(deps Dependencies) *AttemptsHandler {
	return &AttemptsHandler{deps: deps}
}

// HandlePostAttempt ingests a single attempt outcome.
//
// Duplicates by attempt_id are acknowledged without re-processing. A full
// queue yields 429 so callers can retry; the dedupe record is rolled back
// in that case so the retry is not mistaken for a duplicate.
func (h *AttemptsHandler) HandlePostAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind("decode attempt", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_attempt", err)
		return
	}

	// The service layer records the ingest and duplicate counters; the
	// handler only translates outcomes to status codes.
	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, req.AttemptID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if !h.deps.Enqueue(ctx, req.toModel()) {
		h.deps.Unrecord(ctx, req.AttemptID)
		logger.Get().Warn(ctx, "attempt rejected by backpressure",
			logger.String("attempt_id", req.AttemptID),
			logger.String("challenge_id", req.ChallengeID))
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind("enqueue attempt", ErrBackpressure))
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
