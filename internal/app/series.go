package service

import (
	"context"
	"fmt"

	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/series"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
)

// SeriesResult is the state of a best-of-three.
type SeriesResult struct {
	Games         []series.Decision `json:"games"`
	Winner        model.Outcome     `json:"winner"`
	Game3Required bool              `json:"game3Required"`
}

// ResolveSeries decides each game, from its recorded outcome or from the
// marks of its linked runs, and resolves the series. Linked runs that no
// longer exist leave their game undecided. An unknown recorded outcome is
// rejected.
func (s *Service) ResolveSeries(ctx context.Context, p auth.Principal, games []model.SeriesGame) (res SeriesResult, err error) {
	ctx, span, store, err := s.begin(ctx, "ResolveSeries", p, auth.ActionResolveSeries)
	defer func() { end(span, err) }()
	if err != nil {
		return SeriesResult{}, err
	}

	for i, g := range games {
		if !g.Outcome.Known() {
			return SeriesResult{}, fmt.Errorf("%w: game %d has unknown outcome %q", ErrInvalidInput, i+1, g.Outcome)
		}
	}

	marksOf := func(runID string) (*int, error) {
		if runID == "" {
			return nil, nil
		}
		run, err := store.GetRun(ctx, runID)
		if isNotFound(err) {
			s.logger.Warn(ctx, "series game links a missing run", logger.String("run_id", runID))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &run.Marks, nil
	}

	res.Games = make([]series.Decision, 0, len(games))
	outcomes := make([]model.Outcome, 0, len(games))
	for _, g := range games {
		p1, err := marksOf(g.P1RunID)
		if err != nil {
			return SeriesResult{}, err
		}
		p2, err := marksOf(g.P2RunID)
		if err != nil {
			return SeriesResult{}, err
		}
		d := series.DeriveGame(g, p1, p2)
		res.Games = append(res.Games, d)
		outcomes = append(outcomes, d.Outcome)
	}
	res.Winner = series.Resolve(outcomes)
	res.Game3Required = series.Game3Required(outcomes)

	metrics.RecordSeriesResolved(string(res.Winner))
	return res, nil
}
