package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStoreAttempts(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore(ctx)

		Convey("When reading attempts for an unknown challenge", func() {
			_, err := store.AttemptsByChallenge(ctx, "nope")

			Convey("Then it reports challenge not found", func() {
				So(errors.Is(err, repository.ErrChallengeNotFound), ShouldBeTrue)
			})
		})

		Convey("When recording attempts", func() {
			a := model.Attempt{ID: "a1", ChallengeID: "c1", ProfileID: "p1", Success: true, Cost: 3, AchievedAt: time.Now()}
			So(store.RecordAttempt(ctx, a), ShouldBeNil)

			Convey("Then they can be read back", func() {
				got, err := store.AttemptsByChallenge(ctx, "c1")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, "a1")
			})

			Convey("And re-recording the same id is a no-op", func() {
				So(store.RecordAttempt(ctx, a), ShouldBeNil)
				got, err := store.AttemptsByChallenge(ctx, "c1")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})

			Convey("And the challenge becomes visible with an empty cache", func() {
				ids, err := store.ListChallenges(ctx)
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{"c1"})

				cache, err := store.ScoreCache(ctx, "c1")
				So(err, ShouldBeNil)
				So(cache.Entries, ShouldBeEmpty)
			})
		})
	})
}

func TestMemStoreScoreCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with one challenge", t, func() {
		store := repository.NewMemStore(ctx)
		So(store.RecordAttempt(ctx, model.Attempt{ID: "a1", ChallengeID: "c1", ProfileID: "p1", Success: true}), ShouldBeNil)

		Convey("When replacing the score cache", func() {
			cache := model.ScoreCache{
				ChallengeID: "c1",
				Entries:     []model.Entry{{ProfileID: "p1", AttemptID: "a1", Score: 10}},
				ComputedAt:  time.Now(),
			}
			So(store.ReplaceScoreCache(ctx, "c1", cache), ShouldBeNil)

			Convey("Then an immediate read observes the new snapshot", func() {
				got, err := store.ScoreCache(ctx, "c1")
				So(err, ShouldBeNil)
				So(got.Entries, ShouldResemble, cache.Entries)
			})

			Convey("And a later replace wins wholesale, including empty", func() {
				So(store.ReplaceScoreCache(ctx, "c1", model.ScoreCache{ChallengeID: "c1", Entries: []model.Entry{}}), ShouldBeNil)
				got, err := store.ScoreCache(ctx, "c1")
				So(err, ShouldBeNil)
				So(got.Entries, ShouldBeEmpty)
			})
		})

		Convey("When replacing the cache of an unknown challenge", func() {
			err := store.ReplaceScoreCache(ctx, "ghost", model.ScoreCache{ChallengeID: "ghost"})

			Convey("Then it reports challenge not found", func() {
				So(errors.Is(err, repository.ErrChallengeNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading a missing point table", func() {
			_, err := store.PointTable(ctx, "ghost")

			Convey("Then it reports table not found", func() {
				So(errors.Is(err, repository.ErrTableNotFound), ShouldBeTrue)
			})
		})

		Convey("When storing a point table", func() {
			So(store.PutPointTable(ctx, model.PointTable{ID: "t1", Values: []int64{10, 5}}), ShouldBeNil)

			Convey("Then it reads back by id", func() {
				got, err := store.PointTable(ctx, "t1")
				So(err, ShouldBeNil)
				So(got.Values, ShouldResemble, []int64{10, 5})
			})
		})
	})

	Convey("Given a store with a cache write fault installed", t, func() {
		calls := 0
		store := repository.NewMemStore(ctx, repository.WithWriteFault(func(string) error {
			calls++
			if calls == 1 {
				return repository.ErrWriteNotAcked
			}
			return nil
		}))
		So(store.RecordAttempt(ctx, model.Attempt{ID: "a1", ChallengeID: "c1", ProfileID: "p1"}), ShouldBeNil)

		Convey("When the first replace fails and the second succeeds", func() {
			cache := model.ScoreCache{ChallengeID: "c1", Entries: []model.Entry{{ProfileID: "p1", AttemptID: "a1", Score: 10}}}
			err := store.ReplaceScoreCache(ctx, "c1", cache)
			So(errors.Is(err, repository.ErrWriteNotAcked), ShouldBeTrue)
			So(store.ReplaceScoreCache(ctx, "c1", cache), ShouldBeNil)

			Convey("Then only the acknowledged snapshot is visible", func() {
				got, err := store.ScoreCache(ctx, "c1")
				So(err, ShouldBeNil)
				So(got.Entries, ShouldHaveLength, 1)
			})
		})
	})
}
