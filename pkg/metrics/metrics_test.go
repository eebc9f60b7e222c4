package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the default namespace and subsystem are applied", func() {
				So(manager, ShouldNotBeNil)
				manager.submissions.WithLabelValues("accepted").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "rpe_tracker_submissions_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("team"),
				WithSubsystem("load"),
				WithMetricPrefix("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names carry the namespace, subsystem and prefix", func() {
				manager.upserts.WithLabelValues("inserted").Inc()
				expected := `
# HELP team_load_test_upserts_total Applied upserts by kind (inserted, updated)
# TYPE team_load_test_upserts_total counter
team_load_test_upserts_total{env="test",kind="inserted"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "team_load_test_upserts_total")
				So(err, ShouldBeNil)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("accepted"))
			RecordSubmission("accepted")
			RecordSubmission("accepted")

			Convey("Then the outcome counter increases", func() {
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("accepted")), ShouldEqual, before+2)
			})
		})

		Convey("When recording upserts", func() {
			inserted := testutil.ToFloat64(globalManager.upserts.WithLabelValues("inserted"))
			updated := testutil.ToFloat64(globalManager.upserts.WithLabelValues("updated"))
			RecordUpsert(true)
			RecordUpsert(false)
			RecordUpsert(false)

			Convey("Then inserts and updates are counted separately", func() {
				So(testutil.ToFloat64(globalManager.upserts.WithLabelValues("inserted")), ShouldEqual, inserted+1)
				So(testutil.ToFloat64(globalManager.upserts.WithLabelValues("updated")), ShouldEqual, updated+2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateTableShape(42, 9)
			UpdateWorkloadStates(map[string]int{"elevated": 3, "normal": 30})
			UpdateQueueSize(5)
			UpdateQueueCapacity(100)
			UpdateWriterCount(1)

			Convey("Then the last value wins", func() {
				So(testutil.ToFloat64(globalManager.athletesTracked), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.sessionsTracked), ShouldEqual, 9)
				So(testutil.ToFloat64(globalManager.workloadByState.WithLabelValues("elevated")), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.writerCount), ShouldEqual, 1)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordReminder("sent")
				RecordCoachReport("failed")
				UpdateReminderDedupeSize(12)
				RecordStoreFetchLatency(3)
				RecordStoreUpsertLatency(4)
				RecordStoreError("decode")
				RecordHTTPRequest("submit", "POST", "200")
				RecordHTTPRequestDuration("submit", "POST", "200", 12.5)
				UpdateQueueUtilization(0.05)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				RecordWriterProcessingLatency(8)
				RecordWriterError()
				RecordErrorByComponent("writer", "upsert_failed")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("submit", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 1)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.reminders.WithLabelValues("skipped"))
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					RecordReminder("skipped")
				}
			}()
		}
		wg.Wait()

		Convey("Then no increments are lost", func() {
			So(testutil.ToFloat64(globalManager.reminders.WithLabelValues("skipped")), ShouldEqual, before+1000)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		Convey("Then it gathers without error", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
