// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
)

// Default limits for request handling.
const (
	defaultMaxLeaderboardLimit = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an evaluated attempt outcome for async processing.
	// Returns false on backpressure.
	Enqueue(ctx context.Context, a model.Attempt) bool

	// ActiveTableID names the point table used when a trigger omits one.
	ActiveTableID() string

	// Reindex operations recompute and persist leaderboard snapshots.
	ReindexOne(ctx context.Context, challengeID, tableID string) (types.ReindexOutcome, error)
	ReindexAll(ctx context.Context) (types.ReindexSummary, error)

	// Leaderboard exposes the current snapshot for reads.
	Leaderboard(ctx context.Context, challengeID string, limit int) ([]Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	attemptsHandler    *AttemptsHandler
	leaderboardHandler *LeaderboardHandler
	reindexHandler     *ReindexHandler

	adminToken string
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAdminToken sets the credential required by reindex triggers.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithMaxLeaderboardLimit caps GET /leaderboard limit values.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Server) {
		if limit > 0 {
			s.leaderboardHandler.maxLimit = limit
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		attemptsHandler:    NewAttemptsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, defaultMaxLeaderboardLimit),
		reindexHandler:     NewReindexHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/attempts", MetricsMiddleware(s.attemptsHandler.HandlePostAttempt, "attempts"))
	mux.HandleFunc("/leaderboard/", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/reindex", MetricsMiddleware(AdminOnly(s.adminToken, s.reindexHandler.HandleReindexAll), "reindex_all"))
	mux.HandleFunc("/reindex/", MetricsMiddleware(AdminOnly(s.adminToken, s.reindexHandler.HandleReindexOne), "reindex_one"))
}

// attemptRequest mirrors the ingest schema for POST /attempts.
type attemptRequest struct {
	AttemptID   string `json:"attempt_id"`
	ChallengeID string `json:"challenge_id"`
	ProfileID   string `json:"profile_id,omitempty"`
	Success     bool   `json:"success"`
	Cost        int64  `json:"cost"`
	AchievedAt  string `json:"achieved_at"`
}

func (a attemptRequest) validate() error {
	switch {
	case strings.TrimSpace(a.AttemptID) == "":
		return errors.New("missing attempt_id")
	case strings.TrimSpace(a.ChallengeID) == "":
		return errors.New("missing challenge_id")
	case a.Cost < 0:
		return errors.New("cost must be non-negative")
	case strings.TrimSpace(a.AchievedAt) == "":
		return errors.New("missing achieved_at")
	}
	if _, err := time.Parse(time.RFC3339, a.AchievedAt); err != nil {
		return errors.New("invalid achieved_at; must be RFC3339")
	}
	return nil
}

// toModel converts a validated request into the domain attempt.
func (a attemptRequest) toModel() model.Attempt {
	achievedAt, _ := time.Parse(time.RFC3339, a.AchievedAt)
	return model.Attempt{
		ID:          a.AttemptID,
		ChallengeID: a.ChallengeID,
		ProfileID:   a.ProfileID,
		Success:     a.Success,
		Cost:        a.Cost,
		AchievedAt:  achievedAt,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrChallengeNotFound) ||
		errors.Is(err, repository.ErrTableNotFound)
}
