package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/scoring"
	"github.com/lairofevil/standings/internal/domain/standings"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// SubmitRunRequest is an officer's record of one run.
type SubmitRunRequest struct {
	// SubmissionID makes retries idempotent. Optional.
	SubmissionID string `json:"submissionId,omitempty"`
	PlayerID     string `json:"playerId"`
	RoundID      string `json:"roundId"`
	model.RunFacts
	// PhotoStars is only used by legacy rounds.
	PhotoStars int `json:"photoStars,omitempty"`
	// Passphrase is the officer passphrase required by legacy rounds.
	Passphrase string `json:"passphrase,omitempty"`
}

// SubmitRun scores and stores a run. Marks are computed here, once, with
// the rubric of the run's round.
func (s *Service) SubmitRun(ctx context.Context, p auth.Principal, req SubmitRunRequest) (run model.ScoredRun, err error) { //nolint:gocritic // request is a value type
	ctx, span, store, err := s.begin(ctx, "SubmitRun", p, auth.ActionSubmitRun)
	defer func() { end(span, err) }()
	if err != nil {
		return model.ScoredRun{}, err
	}

	if strings.TrimSpace(req.PlayerID) == "" || strings.TrimSpace(req.RoundID) == "" {
		metrics.RecordRunRejected("invalid")
		return model.ScoredRun{}, fmt.Errorf("%w: playerId and roundId are required", ErrInvalidInput)
	}
	round, err := store.GetRound(ctx, req.RoundID)
	if err != nil {
		metrics.RecordRunRejected("unknown_round")
		return model.ScoredRun{}, fmt.Errorf("round %s: %w", req.RoundID, err)
	}
	if round.Currency == model.CurrencyMoney {
		metrics.RecordRunRejected("money_round")
		return model.ScoredRun{}, fmt.Errorf("%w: round %s is scored in money", ErrWrongCurrency, round.ID)
	}
	if _, err := store.GetPlayer(ctx, req.PlayerID); err != nil {
		metrics.RecordRunRejected("unknown_player")
		return model.ScoredRun{}, fmt.Errorf("player %s: %w", req.PlayerID, err)
	}

	variant, err := scoring.ParseVariant(round.Variant)
	if err != nil {
		return model.ScoredRun{}, fmt.Errorf("round %s: %w", round.ID, err)
	}
	stars := 0
	if variant == scoring.VariantLegacy {
		if err := s.legacyGate.Check(req.Passphrase); err != nil {
			metrics.RecordRunRejected("legacy_gate")
			return model.ScoredRun{}, err
		}
		stars = req.PhotoStars
	}
	marks, err := scoring.Score(variant, req.RunFacts, stars)
	if err != nil {
		return model.ScoredRun{}, err
	}

	run = model.ScoredRun{
		ID:            uuid.NewString(),
		PlayerID:      req.PlayerID,
		RoundID:       req.RoundID,
		RunFacts:      req.RunFacts,
		PhotoStars:    stars,
		Marks:         marks,
		Variant:       string(variant),
		Officer:       officerName(p),
		TimeSubmitted: s.now().UTC(),
		SubmissionID:  req.SubmissionID,
	}

	if req.SubmissionID != "" {
		if existing, seen := s.deduper.Remember(ctx, req.SubmissionID, run.ID); seen {
			s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", req.SubmissionID))
			prior, err := store.GetRun(ctx, existing)
			if err != nil {
				// The first attempt has not been stored yet.
				return model.ScoredRun{}, fmt.Errorf("%w: submission %s in progress", ErrConflict, req.SubmissionID)
			}
			return prior, nil
		}
	}
	if err := store.InsertRun(ctx, run); err != nil {
		if req.SubmissionID != "" {
			s.deduper.Forget(ctx, req.SubmissionID)
		}
		return model.ScoredRun{}, fmt.Errorf("store run: %w", err)
	}

	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("run.variant", run.Variant),
		attribute.Int("run.marks", run.Marks),
	)
	metrics.RecordRunScored(run.Variant, run.Marks)
	s.logger.Info(ctx, "run scored",
		logger.String("run_id", run.ID),
		logger.String("player_id", run.PlayerID),
		logger.String("round_id", run.RoundID),
		logger.Int("marks", run.Marks),
		logger.String("variant", run.Variant),
	)
	return run, nil
}

func officerName(p auth.Principal) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Subject
}

// DeleteRun removes a run. Runs are never edited; a wrong run is deleted
// and submitted again, so its submission key is released too.
func (s *Service) DeleteRun(ctx context.Context, p auth.Principal, id string) (err error) {
	ctx, span, store, err := s.begin(ctx, "DeleteRun", p, auth.ActionDeleteRun)
	defer func() { end(span, err) }()
	if err != nil {
		return err
	}
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	if err := store.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	if run.SubmissionID != "" {
		s.deduper.Forget(ctx, run.SubmissionID)
	}
	metrics.RecordRunDeleted()
	s.logger.Info(ctx, "run deleted", logger.String("run_id", id), logger.String("by", p.Subject))
	return nil
}

// GetRun returns a stored run.
func (s *Service) GetRun(ctx context.Context, id string) (run model.ScoredRun, err error) {
	ctx, span, store, err := s.begin(ctx, "GetRun", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return model.ScoredRun{}, err
	}
	run, err = store.GetRun(ctx, id)
	if err != nil {
		return model.ScoredRun{}, fmt.Errorf("run %s: %w", id, err)
	}
	return run, nil
}

// PlayerSummary aggregates a player's runs across all rounds.
type PlayerSummary struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Runs     int     `json:"runs"`
	Total    int     `json:"total"`
	Average  float64 `json:"average"`
}

// PlayerSummary returns run count, total and average marks for a player.
// A player without runs averages 0.
func (s *Service) PlayerSummary(ctx context.Context, playerID string) (sum PlayerSummary, err error) {
	ctx, span, store, err := s.begin(ctx, "PlayerSummary", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return PlayerSummary{}, err
	}
	player, err := store.GetPlayer(ctx, playerID)
	if err != nil {
		return PlayerSummary{}, fmt.Errorf("player %s: %w", playerID, err)
	}
	runs, err := store.ListRunsByPlayer(ctx, playerID)
	if err != nil {
		return PlayerSummary{}, err
	}

	sum = PlayerSummary{PlayerID: player.ID, Name: player.Name, Runs: len(runs)}
	for _, r := range runs {
		sum.Total += r.Marks
	}
	sum.Average = standings.Average(float64(sum.Total), sum.Runs)
	return sum, nil
}

// isNotFound reports whether err is a missing-record error.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
