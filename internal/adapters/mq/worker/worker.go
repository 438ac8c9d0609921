// Package worker re-scores stored runs in the background.
//
// Marks are written once at submission. Auditing re-evaluates every stored
// run with its own rubric and reports records whose stored marks disagree.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Rescorer recomputes the marks for a stored run.
type Rescorer func(run model.ScoredRun) (int, error)

// Mismatch describes a run whose stored marks differ from a fresh evaluation.
type Mismatch struct {
	RunID    string `json:"runId"`
	PlayerID string `json:"playerId"`
	Variant  string `json:"variant"`
	Stored   int    `json:"stored"`
	Computed int    `json:"computed"`
}

// Reporter receives audit mismatches. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(ctx context.Context, m Mismatch)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, m Mismatch)

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, m Mismatch) { f(ctx, m) }

// Queue defines how workers receive runs.
type Queue interface {
	Dequeue() <-chan model.ScoredRun
}

// InMemoryWorker audits runs read from a queue.
type InMemoryWorker struct {
	queue    Queue
	rescore  Rescorer
	reporter Reporter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, rescore Rescorer, reporter Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		rescore:  rescore,
		reporter: reporter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes runs until ctx is cancelled, Shutdown is called or the
// queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	runs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case run, ok := <-runs:
			if !ok {
				return
			}
			if err := w.audit(ctx, run); err != nil {
				w.logger.Error(ctx, "error auditing run", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) audit(ctx context.Context, run model.ScoredRun) error { //nolint:gocritic // runs are passed by value through the channel
	computed, err := w.rescore(run)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "rescore_error")
		return fmt.Errorf("rescore run %s: %w", run.ID, err)
	}
	metrics.RecordAuditChecked()

	if computed == run.Marks {
		return nil
	}
	metrics.RecordAuditMismatch(run.Variant)
	m := Mismatch{
		RunID:    run.ID,
		PlayerID: run.PlayerID,
		Variant:  run.Variant,
		Stored:   run.Marks,
		Computed: computed,
	}
	w.logger.Warn(ctx, "stored marks differ from rubric",
		logger.String("run_id", m.RunID),
		logger.Int("stored", m.Stored),
		logger.Int("computed", m.Computed),
	)
	if w.reporter != nil {
		w.reporter.Report(ctx, m)
	}
	return nil
}

// Pool manages multiple audit workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stopped atomic.Bool
	logger  logger.Logger
}

// NewPool creates a pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, rescore Rescorer, reporter Reporter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, rescore, reporter,
			WithName("audit-"+strconv.Itoa(i)),
		)
	}
	metrics.UpdateAuditWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateAuditWorkerCount(0)
	return nil
}
