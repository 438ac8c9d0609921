package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the given namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.runsScored.WithLabelValues("current").Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_runs_scored_total"], ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording a scored run", func() {
			before := testutil.ToFloat64(globalManager.runsScored.WithLabelValues("legacy"))
			RecordRunScored("legacy", 7)

			Convey("Then the variant counter increases", func() {
				after := testutil.ToFloat64(globalManager.runsScored.WithLabelValues("legacy"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When opening and closing a session", func() {
			before := testutil.ToFloat64(globalManager.openSessions)
			RecordSessionOpened("vote-out")
			RecordSessionClosed()

			Convey("Then the open gauge returns to its prior value", func() {
				So(testutil.ToFloat64(globalManager.openSessions), ShouldEqual, before)
			})
		})

		Convey("When recording audit outcomes", func() {
			before := testutil.ToFloat64(globalManager.auditMismatches.WithLabelValues("current"))
			RecordAuditChecked()
			RecordAuditMismatch("current")
			UpdateAuditQueueSize(3)
			UpdateAuditWorkerCount(2)

			Convey("Then counters and gauges reflect the calls", func() {
				So(testutil.ToFloat64(globalManager.auditMismatches.WithLabelValues("current"))-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.auditQueueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.auditWorkerCount), ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining helpers", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordRunDeleted()
					RecordRunRejected("forbidden")
					RecordStandingsComputed("marks", 1.5)
					RecordVoteCast("pick-ally")
					RecordSeriesResolved("Tie")
					UpdateStoredRuns(10)
					RecordHTTPRequest("runs", "POST", "201", 2)
					RecordErrorByComponent("store", "not_found")
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering from the exported registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it succeeds", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
