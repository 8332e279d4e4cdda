package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/adapters/repository"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps implements Dependencies with canned responses for handler tests.
type mockDeps struct {
	mu sync.Mutex

	seen       map[string]struct{}
	enqueueOK  bool
	enqueued   []model.Attempt
	tableID    string
	reindexErr error
	outcome    types.ReindexOutcome
	summary    types.ReindexSummary
	board      []Entry
	boardErr   error
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		seen:      make(map[string]struct{}),
		enqueueOK: true,
		tableID:   "season-1",
	}
}

func (m *mockDeps) SeenAndRecord(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[id]; ok {
		return true
	}
	m.seen[id] = struct{}{}
	return false
}

func (m *mockDeps) Unrecord(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDeps) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

func (m *mockDeps) Enqueue(ctx context.Context, a model.Attempt) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enqueueOK {
		return false
	}
	m.enqueued = append(m.enqueued, a)
	return true
}

func (m *mockDeps) ActiveTableID() string { return m.tableID }

func (m *mockDeps) ReindexOne(ctx context.Context, challengeID, tableID string) (types.ReindexOutcome, error) {
	if m.reindexErr != nil {
		return types.ReindexOutcome{ChallengeID: challengeID}, m.reindexErr
	}
	out := m.outcome
	out.ChallengeID = challengeID
	return out, nil
}

func (m *mockDeps) ReindexAll(ctx context.Context) (types.ReindexSummary, error) {
	if m.reindexErr != nil {
		return types.ReindexSummary{}, m.reindexErr
	}
	return m.summary, nil
}

func (m *mockDeps) Leaderboard(ctx context.Context, challengeID string, limit int) ([]Entry, error) {
	if m.boardErr != nil {
		return nil, m.boardErr
	}
	if limit < len(m.board) {
		return m.board[:limit], nil
	}
	return m.board, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *mockDeps) *http.ServeMux {
	srv := NewServer(deps, mockStats{}, WithAdminToken("sekrit"), WithMaxLeaderboardLimit(3))
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func attemptBody(id string) string {
	return `{"attempt_id":"` + id + `","challenge_id":"c1","profile_id":"p1","success":true,"cost":5,"achieved_at":"2026-08-01T10:00:00Z"}`
}

func TestPostAttempt(t *testing.T) {
	Convey("Given the attempts endpoint", t, func() {
		deps := newMockDeps()
		mux := newTestServer(deps)

		Convey("When a valid attempt is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(attemptBody("a1")))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it is accepted and enqueued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].ID, ShouldEqual, "a1")
				So(deps.enqueued[0].Cost, ShouldEqual, 5)
			})
		})

		Convey("When the same attempt is posted twice", func() {
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(attemptBody("a2")))
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
			}

			Convey("Then the duplicate is acknowledged without re-enqueueing", func() {
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueOK = false
			req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(attemptBody("a3")))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the caller gets backpressure and the id can be retried", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the payload is invalid", func() {
			cases := []string{
				`not json`,
				`{"challenge_id":"c1","success":true,"cost":1,"achieved_at":"2026-08-01T10:00:00Z"}`,
				`{"attempt_id":"a4","challenge_id":"c1","success":true,"cost":-1,"achieved_at":"2026-08-01T10:00:00Z"}`,
				`{"attempt_id":"a5","challenge_id":"c1","success":true,"cost":1,"achieved_at":"yesterday"}`,
			}
			for _, body := range cases {
				req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(body))
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.enqueued, ShouldBeEmpty)
		})

		Convey("When the method is not POST", func() {
			req := httptest.NewRequest(http.MethodGet, "/attempts", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestReindexEndpoints(t *testing.T) {
	Convey("Given the reindex endpoints", t, func() {
		deps := newMockDeps()
		deps.outcome = types.ReindexOutcome{Entries: 3, Retries: 1}
		deps.summary = types.ReindexSummary{Challenges: 2, Succeeded: 2}
		mux := newTestServer(deps)

		admin := func(method, target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, target, nil)
			req.Header.Set("X-Admin-Token", "sekrit")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			return rec
		}

		Convey("When triggering a single-challenge reindex with the admin token", func() {
			rec := admin(http.MethodPost, "/reindex/c1?table=season-2")

			Convey("Then the terminal outcome is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var out types.ReindexOutcome
				So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
				So(out.ChallengeID, ShouldEqual, "c1")
				So(out.Entries, ShouldEqual, 3)
				So(out.Retries, ShouldEqual, 1)
			})
		})

		Convey("When triggering a full sweep", func() {
			rec := admin(http.MethodPost, "/reindex")

			Convey("Then the summary is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var sum types.ReindexSummary
				So(json.Unmarshal(rec.Body.Bytes(), &sum), ShouldBeNil)
				So(sum.Challenges, ShouldEqual, 2)
				So(sum.Succeeded, ShouldEqual, 2)
			})
		})

		Convey("When the token is missing or wrong", func() {
			req := httptest.NewRequest(http.MethodPost, "/reindex/c1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)

			req = httptest.NewRequest(http.MethodPost, "/reindex/c1", nil)
			req.Header.Set("X-Admin-Token", "guess")
			rec = httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When no admin token is configured", func() {
			bare := NewServer(deps, mockStats{})
			bareMux := http.NewServeMux()
			bare.Register(context.Background(), bareMux)

			req := httptest.NewRequest(http.MethodPost, "/reindex/c1", nil)
			req.Header.Set("X-Admin-Token", "")
			rec := httptest.NewRecorder()
			bareMux.ServeHTTP(rec, req)

			Convey("Then the routes are disabled rather than open", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the challenge is unknown", func() {
			deps.reindexErr = repository.ErrChallengeNotFound
			rec := admin(http.MethodPost, "/reindex/missing")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When no point table is configured", func() {
			deps.reindexErr = app.ErrNoActiveTable
			rec := admin(http.MethodPost, "/reindex")
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("When a single reindex omits the table and none is configured", func() {
			deps.tableID = ""
			rec := admin(http.MethodPost, "/reindex/c1")

			Convey("Then it is rejected as a configuration error, not a lookup miss", func() {
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				var resp errorResponse
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "configuration_error")
			})
		})
	})
}

func TestGetLeaderboard(t *testing.T) {
	Convey("Given the leaderboard endpoint", t, func() {
		deps := newMockDeps()
		deps.board = []Entry{
			{Rank: 1, ProfileID: "p3", AttemptID: "a3", Score: 10},
			{Rank: 2, ProfileID: "p1", AttemptID: "a1", Score: 5},
			{Rank: 3, ProfileID: "p2", AttemptID: "a2", Score: 1},
		}
		mux := newTestServer(deps)

		Convey("When the snapshot is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard/c1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then entries are returned in rank order", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp leaderboardResponse
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.ChallengeID, ShouldEqual, "c1")
				So(resp.Entries, ShouldHaveLength, 3)
				So(resp.Entries[0].ProfileID, ShouldEqual, "p3")
			})
		})

		Convey("When a limit is supplied", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard/c1?limit=1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			var resp leaderboardResponse
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Entries, ShouldHaveLength, 1)
		})

		Convey("When the limit is malformed", func() {
			for _, raw := range []string{"0", "-2", "abc"} {
				req := httptest.NewRequest(http.MethodGet, "/leaderboard/c1?limit="+raw, nil)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the challenge is unknown", func() {
			deps.boardErr = repository.ErrChallengeNotFound
			req := httptest.NewRequest(http.MethodGet, "/leaderboard/missing", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the read fails unexpectedly", func() {
			deps.boardErr = errors.New("snapshot torn")
			req := httptest.NewRequest(http.MethodGet, "/leaderboard/c1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the error carries the failing operation", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				var resp errorResponse
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Message, ShouldStartWith, "read leaderboard:")
			})
		})
	})
}

// counterValue reads the current value of a counter family from the service
// registry. Zero if the family has not been observed yet.
func counterValue(name string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestIngestMetricsCountOnce(t *testing.T) {
	Convey("Given a server backed by the real service", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		So(store.PutPointTable(ctx, model.PointTable{ID: "season-1", Values: []int64{10, 5, 1}}), ShouldBeNil)

		svc := app.New(
			app.WithStore(store),
			app.WithActiveTable("season-1"),
			app.WithWorkerCount(1),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		srv := NewServer(svc, svc)
		mux := http.NewServeMux()
		srv.Register(ctx, mux)

		post := func(id string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(attemptBody(id)))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			return rec
		}

		Convey("When one attempt is accepted", func() {
			before := counterValue("podium_ranking_attempts_ingested_total")
			rec := post("metrics-once-1")

			Convey("Then the ingested counter advances by exactly one", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(counterValue("podium_ranking_attempts_ingested_total")-before, ShouldEqual, 1)
			})
		})

		Convey("When the same attempt is submitted again", func() {
			post("metrics-once-2")
			before := counterValue("podium_ranking_attempts_duplicate_total")
			rec := post("metrics-once-2")

			Convey("Then the duplicate counter advances by exactly one", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(counterValue("podium_ranking_attempts_duplicate_total")-before, ShouldEqual, 1)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		mux := newTestServer(newMockDeps())

		Convey("When stats are requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the provider payload is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got["started"], ShouldEqual, true)
			})
		})
	})
}
