// Package service wires the scoring, standings, tally and series rules to
// the record store and exposes them as authorized operations.
package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lairofevil/standings/internal/adapters/mq/queue"
	"github.com/lairofevil/standings/internal/adapters/mq/worker"
	"github.com/lairofevil/standings/internal/adapters/repository"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/dedupe"
	"github.com/lairofevil/standings/internal/domain/scoring"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "github.com/lairofevil/standings/internal/app"
	maxKeptMismatch  = 100
	defaultQueueSize = 10000
)

// Service implements the operations behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	ownsStore  bool
	deduper    dedupe.Deduper
	auditQueue *queue.InMemoryQueue
	auditPool  *worker.Pool

	policy        auth.Policy
	legacyGate    *auth.LegacyGate
	extraReporter worker.Reporter

	auditWorkers   int
	auditQueueSize int
	dedupeSize     int
	pollInterval   time.Duration

	now    func() time.Time
	tracer trace.Tracer
	logger logger.Logger

	started bool

	mismatchCount atomic.Int64
	mismatchMu    sync.Mutex
	mismatches    []worker.Mismatch
}

// New constructs a Service. Without WithPolicy every action is allowed and
// without WithLegacyGate legacy rounds refuse all submissions.
func New(opts ...Option) *Service {
	s := &Service{
		policy:         auth.AllowAll{},
		legacyGate:     auth.NewLegacyGate(""),
		auditWorkers:   runtime.NumCPU(),
		auditQueueSize: defaultQueueSize,
		dedupeSize:     50000,
		pollInterval:   3 * time.Second,
		now:            time.Now,
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting standings service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.startAudit(ctx)

	s.started = true
	s.logger.Info(ctx, "standings service started",
		logger.Int("audit_workers", s.auditWorkers),
		logger.Int("audit_queue_size", s.auditQueueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// startAudit must be called with s.mu held.
func (s *Service) startAudit(ctx context.Context) {
	s.auditQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.auditQueueSize))
	s.auditPool = worker.NewPool(s.auditWorkers, s.auditQueue, scoring.Rescore, worker.ReporterFunc(s.reportMismatch))
	s.auditPool.Start(ctx)
}

// Stop drains the audit queue and releases the store if the service owns it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping standings service...")

	if s.auditPool != nil {
		_ = s.auditPool.Shutdown(ctx)
	}
	if s.ownsStore && s.store != nil {
		_ = s.store.Close()
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "standings service stopped")
}

// deps returns the components operations need, or ErrNotStarted.
func (s *Service) deps() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// begin opens a span and checks the caller may perform a.
func (s *Service) begin(ctx context.Context, name string, p auth.Principal, a auth.Action) (context.Context, trace.Span, repository.Store, error) {
	ctx, span := s.tracer.Start(ctx, "Service."+name)
	store, err := s.deps()
	if err != nil {
		return ctx, span, nil, err
	}
	if a != "" {
		if err := s.policy.Authorize(ctx, p, a); err != nil {
			metrics.RecordErrorByComponent("service", "unauthorized")
			return ctx, span, nil, err
		}
	}
	return ctx, span, store, nil
}

// end records err on span and closes it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"auditWorkers":    s.auditWorkers,
		"auditQueueSize":  s.auditQueueSize,
		"dedupeSize":      s.dedupeSize,
		"pollIntervalMs":  s.pollInterval.Milliseconds(),
		"auditMismatches": s.mismatchCount.Load(),
	}
	if s.started {
		ctx := context.Background()
		runs := s.store.Count(ctx)
		stats["storedRuns"] = runs
		stats["auditQueueLength"] = s.auditQueue.Len()
		stats["rememberedSubmissions"] = s.deduper.Size()
		metrics.UpdateStoredRuns(runs)
	}
	return stats
}
