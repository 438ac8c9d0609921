package service

import (
	"context"
	"errors"

	"github.com/lairofevil/standings/internal/adapters/mq/queue"
	"github.com/lairofevil/standings/internal/adapters/mq/worker"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/pkg/logger"
)

// AuditReport describes an audit pass that was queued.
type AuditReport struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
}

// Audit queues every stored run for re-scoring. Workers compare the stored
// marks with a fresh evaluation and report differences. Runs that do not
// fit in the queue are skipped and counted.
func (s *Service) Audit(ctx context.Context, p auth.Principal) (rep AuditReport, err error) {
	ctx, span, store, err := s.begin(ctx, "Audit", p, auth.ActionAudit)
	defer func() { end(span, err) }()
	if err != nil {
		return AuditReport{}, err
	}
	runs, err := store.AllRuns(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	s.mu.RLock()
	q := s.auditQueue
	s.mu.RUnlock()

	for _, run := range runs {
		switch err := q.Enqueue(ctx, run); {
		case err == nil:
			rep.Queued++
		case errors.Is(err, queue.ErrFull):
			rep.Skipped++
		default:
			return rep, err
		}
	}
	s.logger.Info(ctx, "audit queued", logger.Int("queued", rep.Queued), logger.Int("skipped", rep.Skipped))
	return rep, nil
}

func (s *Service) reportMismatch(ctx context.Context, m worker.Mismatch) {
	s.mismatchCount.Add(1)

	s.mismatchMu.Lock()
	s.mismatches = append(s.mismatches, m)
	if len(s.mismatches) > maxKeptMismatch {
		s.mismatches = s.mismatches[len(s.mismatches)-maxKeptMismatch:]
	}
	s.mismatchMu.Unlock()

	if s.extraReporter != nil {
		s.extraReporter.Report(ctx, m)
	}
}

// AuditMismatches returns the most recent audit mismatches, oldest first.
func (s *Service) AuditMismatches() []worker.Mismatch {
	s.mismatchMu.Lock()
	defer s.mismatchMu.Unlock()
	return append([]worker.Mismatch(nil), s.mismatches...)
}
