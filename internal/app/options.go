package service

import (
	"time"

	"github.com/lairofevil/standings/internal/adapters/mq/worker"
	"github.com/lairofevil/standings/internal/adapters/repository"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects the record store. Without it Start creates an
// in-memory store owned by the service.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPolicy sets the authorization policy.
func WithPolicy(p auth.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithLegacyGate sets the officer passphrase gate for legacy rounds.
func WithLegacyGate(g *auth.LegacyGate) Option {
	return func(s *Service) {
		if g != nil {
			s.legacyGate = g
		}
	}
}

// WithAuditWorkers sets the number of audit worker goroutines.
func WithAuditWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.auditWorkers = count
		}
	}
}

// WithAuditQueueSize sets the capacity of the audit queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}

// WithAuditReporter receives audit mismatches in addition to the
// service's own log and counters.
func WithAuditReporter(r worker.Reporter) Option {
	return func(s *Service) {
		s.extraReporter = r
	}
}

// WithDedupeSize sets how many submission keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithPollInterval sets the refresh interval advertised to clients.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}
