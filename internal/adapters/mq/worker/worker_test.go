package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Mock implementations for testing.
type mockRecorder struct {
	mu       sync.Mutex
	recorded []model.Attempt
	err      error
}

func (m *mockRecorder) RecordAttempt(ctx context.Context, a model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, a)
	return nil
}

func (m *mockRecorder) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recorded)
}

type mockReindexer struct {
	mu         sync.Mutex
	challenges []string
	err        error
}

func (m *mockReindexer) Reindex(ctx context.Context, challengeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.challenges = append(m.challenges, challengeID)
	return nil
}

func (m *mockReindexer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.challenges) == 0 {
		return ""
	}
	return m.challenges[len(m.challenges)-1]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a running worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		recorder := &mockRecorder{}
		reindexer := &mockReindexer{}
		w := worker.NewInMemoryWorker(q, recorder, reindexer, worker.WithName("worker-test"))
		go w.Run(ctx)

		Convey("When an attempt is enqueued", func() {
			a := model.Attempt{ID: "a1", ChallengeID: "c1", ProfileID: "p1", Success: true, Cost: 4}
			So(q.Enqueue(ctx, a), ShouldBeTrue)

			Convey("Then it is recorded and its challenge reindexed", func() {
				So(waitFor(func() bool { return recorder.count() == 1 }), ShouldBeTrue)
				So(waitFor(func() bool { return reindexer.last() == "c1" }), ShouldBeTrue)
			})
		})

		Convey("When recording fails", func() {
			recorder.setErr(errors.New("store unavailable"))
			So(q.Enqueue(ctx, model.Attempt{ID: "a2", ChallengeID: "c2"}), ShouldBeTrue)

			Convey("Then no reindex is triggered for that attempt", func() {
				time.Sleep(50 * time.Millisecond)
				So(reindexer.last(), ShouldBeEmpty)
			})
		})

		Convey("When the worker is shut down", func() {
			err := w.Shutdown(ctx)

			Convey("Then it stops without error", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool draining a shared queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		recorder := &mockRecorder{}
		reindexer := &mockReindexer{}
		pool := worker.NewPool(4, q, recorder, reindexer)
		pool.Start(ctx)

		Convey("When many attempts are enqueued", func() {
			for i := 0; i < 20; i++ {
				So(q.Enqueue(ctx, model.Attempt{ID: string(rune('a' + i)), ChallengeID: "c1"}), ShouldBeTrue)
			}

			Convey("Then every attempt is eventually processed", func() {
				So(waitFor(func() bool { return recorder.count() == 20 }), ShouldBeTrue)
				pool.Stop()
			})
		})
	})
}
