package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When a manager is created against it", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace("podium_test"),
				WithSubsystem("ranking"),
			)

			Convey("Then all metrics register without panicking", func() {
				So(m, ShouldNotBeNil)

				families, err := reg.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestPackageLevelRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording events through the package functions", func() {
			RecordAttemptIngested()
			RecordAttemptDuplicate()
			RecordReindexAttempt()
			RecordReindexRetry()
			RecordReindexSuccess()
			RecordReindexFailure()
			RecordReindexExhausted()
			RecordRankComputeLatency(1.5)
			RecordStoreReadLatency(0.2)
			RecordStoreWriteLatency(0.3)
			RecordCacheWriteLatency(0.4)
			UpdateCacheEntries("challenge-1", 3)
			UpdateTotalChallenges(2)
			UpdateQueueSize(10)
			UpdateQueueCapacity(100)
			UpdateQueueUtilization(0.1)
			RecordQueueEnqueue()
			RecordQueueDequeue()
			RecordQueueEnqueueError()
			UpdateWorkerCount(4)
			RecordWorkerProcessingLatency(2.0)
			RecordWorkerError()
			RecordHTTPRequest("leaderboard", "GET", "200")
			RecordHTTPRequestDuration("leaderboard", "GET", "200", 0.01)
			RecordErrorByComponent("service", "store_error")
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.5)

			Convey("Then the custom registry exposes the recorded families", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["podium_ranking_attempts_ingested_total"], ShouldBeTrue)
				So(names["podium_ranking_reindex_attempts_total"], ShouldBeTrue)
				So(names["podium_ranking_cache_entries"], ShouldBeTrue)
				So(names["podium_ranking_http_requests_total"], ShouldBeTrue)
			})
		})
	})
}
