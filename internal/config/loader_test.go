package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given the configuration loader", t, func() {
		ctx := context.Background()

		// t.Setenv only restores values when the whole test ends, but
		// Convey re-runs sibling branches within one test; unset between
		// branches so env set in one branch does not leak into the next.
		Reset(func() {
			for _, k := range []string{
				"PODIUM_ADDR",
				"PODIUM_ACTIVE_SCORE_TABLE_ID",
				"PODIUM_REINDEX_MAX_RETRIES",
				"PODIUM_CONFIG",
				"PODIUM_QUEUE_SIZE",
			} {
				So(os.Unsetenv(k), ShouldBeNil)
			}
		})

		Convey("When no sources are set", func() {
			cfg, err := Load(ctx)

			Convey("Then defaults are returned", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.QueueSize, ShouldEqual, 100_000)
				So(cfg.ReindexMaxRetries, ShouldEqual, 3)
				So(cfg.ActiveScoreTableID, ShouldBeEmpty)
			})
		})

		Convey("When env vars are set", func() {
			t.Setenv("PODIUM_ADDR", ":7070")
			t.Setenv("PODIUM_ACTIVE_SCORE_TABLE_ID", "season-1")
			t.Setenv("PODIUM_REINDEX_MAX_RETRIES", "5")

			cfg, err := Load(ctx)

			Convey("Then env values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.ActiveScoreTableID, ShouldEqual, "season-1")
				So(cfg.ReindexMaxRetries, ShouldEqual, 5)
			})
		})

		Convey("When a config file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "podium.yaml")
			yaml := "addr: \":6060\"\nworker_count: 2\nadmin_token: sekrit\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			t.Setenv("PODIUM_CONFIG", path)

			cfg, err := Load(ctx)

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.WorkerCount, ShouldEqual, 2)
				So(cfg.AdminToken, ShouldEqual, "sekrit")
			})

			Convey("And env still wins over the file", func() {
				t.Setenv("PODIUM_ADDR", ":5050")
				cfg, err := Load(ctx)
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":5050")
			})
		})

		Convey("When the file path is bogus", func() {
			t.Setenv("PODIUM_CONFIG", "/nonexistent/podium.yaml")
			_, err := Load(ctx)
			So(err, ShouldNotBeNil)
		})

		Convey("When a value fails validation", func() {
			t.Setenv("PODIUM_QUEUE_SIZE", "0")
			_, err := Load(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}
