package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/lairofevil/standings/internal/adapters/mq/queue"
	worker "github.com/lairofevil/standings/internal/adapters/mq/worker"
	model "github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/scoring"
	logging "github.com/lairofevil/standings/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type collectingReporter struct {
	mu         sync.Mutex
	mismatches []worker.Mismatch
}

func (r *collectingReporter) Report(_ context.Context, m worker.Mismatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mismatches = append(r.mismatches, m)
}

func (r *collectingReporter) snapshot() []worker.Mismatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]worker.Mismatch(nil), r.mismatches...)
}

func TestPool_Audit(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given an audit pool over a queue of stored runs", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		reporter := &collectingReporter{}
		pool := worker.NewPool(3, q, scoring.Rescore, reporter)
		convey.So(pool.Size(), convey.ShouldEqual, 3)
		pool.Start(ctx)

		convey.Convey("When one run carries tampered marks", func() {
			good := model.ScoredRun{ID: "r1", RunFacts: model.RunFacts{GhostPicture: true}, Marks: 5, Variant: "current"}
			bad := model.ScoredRun{ID: "r2", PlayerID: "p2", RunFacts: model.RunFacts{Survived: true}, Marks: 9, Variant: "current"}
			legacy := model.ScoredRun{ID: "r3", RunFacts: model.RunFacts{Survived: true}, PhotoStars: 1, Marks: 3, Variant: "legacy"}
			convey.So(q.Enqueue(ctx, good), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, bad), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, legacy), convey.ShouldBeNil)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then only that run is reported", func() {
				got := reporter.snapshot()
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0], convey.ShouldResemble, worker.Mismatch{
					RunID: "r2", PlayerID: "p2", Variant: "current", Stored: 9, Computed: 3,
				})
			})

			convey.Convey("Then a second shutdown is a no-op", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorker_RescoreError(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a worker whose rescorer fails", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		var calls int
		var mu sync.Mutex
		failing := func(model.ScoredRun) (int, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return 0, errors.New("boom")
		}
		reported := false
		w := worker.NewInMemoryWorker(q, failing, worker.ReporterFunc(func(context.Context, worker.Mismatch) {
			reported = true
		}), worker.WithName("audit-test"))

		convey.So(q.Enqueue(ctx, model.ScoredRun{ID: "r1"}), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)

		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		convey.Convey("Then the run is skipped without a report and the worker exits", func() {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("worker did not exit after queue closed")
			}
			mu.Lock()
			convey.So(calls, convey.ShouldEqual, 1)
			mu.Unlock()
			convey.So(reported, convey.ShouldBeFalse)
		})
	})
}
