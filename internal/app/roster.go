package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/scoring"
	"github.com/lairofevil/standings/pkg/logger"
)

// UpsertPlayer creates or replaces a player.
func (s *Service) UpsertPlayer(ctx context.Context, p auth.Principal, player model.Player) (err error) {
	ctx, span, store, err := s.begin(ctx, "UpsertPlayer", p, auth.ActionManageRoster)
	defer func() { end(span, err) }()
	if err != nil {
		return err
	}
	if strings.TrimSpace(player.ID) == "" || strings.TrimSpace(player.Name) == "" {
		return fmt.Errorf("%w: player id and name are required", ErrInvalidInput)
	}
	return store.UpsertPlayer(ctx, player)
}

// ListPlayers returns the roster.
func (s *Service) ListPlayers(ctx context.Context) (players []model.Player, err error) {
	ctx, span, store, err := s.begin(ctx, "ListPlayers", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return nil, err
	}
	return store.ListPlayers(ctx)
}

// UpsertTeam creates or replaces a team. Every member must be a known player.
func (s *Service) UpsertTeam(ctx context.Context, p auth.Principal, team model.Team) (saved model.Team, err error) {
	ctx, span, store, err := s.begin(ctx, "UpsertTeam", p, auth.ActionManageRoster)
	defer func() { end(span, err) }()
	if err != nil {
		return model.Team{}, err
	}
	if strings.TrimSpace(team.ID) == "" || strings.TrimSpace(team.Name) == "" {
		return model.Team{}, fmt.Errorf("%w: team id and name are required", ErrInvalidInput)
	}
	for _, m := range team.Members {
		if _, err := store.GetPlayer(ctx, m); err != nil {
			return model.Team{}, fmt.Errorf("%w: unknown member %s", ErrInvalidInput, m)
		}
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = s.now().UTC()
	}
	if err := store.UpsertTeam(ctx, team); err != nil {
		return model.Team{}, err
	}
	return team, nil
}

// ListTeams returns all teams.
func (s *Service) ListTeams(ctx context.Context) (teams []model.Team, err error) {
	ctx, span, store, err := s.begin(ctx, "ListTeams", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return nil, err
	}
	return store.ListTeams(ctx)
}

// CreateRoundRequest describes a new round.
type CreateRoundRequest struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Currency model.Currency `json:"currency,omitempty"`
	Variant  string         `json:"variant,omitempty"`
}

// CreateRound opens a round. Currency defaults to marks and marks rounds
// default to the current rubric.
func (s *Service) CreateRound(ctx context.Context, p auth.Principal, req CreateRoundRequest) (round model.Round, err error) {
	ctx, span, store, err := s.begin(ctx, "CreateRound", p, auth.ActionManageRounds)
	defer func() { end(span, err) }()
	if err != nil {
		return model.Round{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.Round{}, fmt.Errorf("%w: round name is required", ErrInvalidInput)
	}
	if req.Currency == "" {
		req.Currency = model.CurrencyMarks
	}
	if !req.Currency.Valid() {
		return model.Round{}, fmt.Errorf("%w: unknown currency %q", ErrInvalidInput, req.Currency)
	}
	round = model.Round{
		ID:        req.ID,
		Name:      req.Name,
		Currency:  req.Currency,
		CreatedAt: s.now().UTC(),
	}
	if round.ID == "" {
		round.ID = uuid.NewString()
	}
	if round.Currency == model.CurrencyMarks {
		v, err := scoring.ParseVariant(req.Variant)
		if err != nil {
			return model.Round{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		round.Variant = string(v)
	}

	if err := store.InsertRound(ctx, round); err != nil {
		return model.Round{}, fmt.Errorf("round %s: %w", round.ID, err)
	}
	s.logger.Info(ctx, "round created",
		logger.String("round_id", round.ID),
		logger.String("currency", string(round.Currency)),
		logger.String("variant", round.Variant),
	)
	return round, nil
}

// ListRounds returns all rounds.
func (s *Service) ListRounds(ctx context.Context) (rounds []model.Round, err error) {
	ctx, span, store, err := s.begin(ctx, "ListRounds", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return nil, err
	}
	return store.ListRounds(ctx)
}

// MoneyResultRequest records a money amount for a subject.
type MoneyResultRequest struct {
	RoundID   string  `json:"roundId"`
	SubjectID string  `json:"subjectId"`
	Amount    float64 `json:"amount"`
}

// RecordMoneyResult stores a money result in a money round.
func (s *Service) RecordMoneyResult(ctx context.Context, p auth.Principal, req MoneyResultRequest) (res model.MoneyResult, err error) {
	ctx, span, store, err := s.begin(ctx, "RecordMoneyResult", p, auth.ActionRecordMoney)
	defer func() { end(span, err) }()
	if err != nil {
		return model.MoneyResult{}, err
	}
	if req.SubjectID == "" {
		return model.MoneyResult{}, fmt.Errorf("%w: subjectId is required", ErrInvalidInput)
	}
	round, err := store.GetRound(ctx, req.RoundID)
	if err != nil {
		return model.MoneyResult{}, fmt.Errorf("round %s: %w", req.RoundID, err)
	}
	if round.Currency != model.CurrencyMoney {
		return model.MoneyResult{}, fmt.Errorf("%w: round %s is scored in marks", ErrWrongCurrency, round.ID)
	}

	res = model.MoneyResult{
		ID:            uuid.NewString(),
		RoundID:       round.ID,
		SubjectID:     req.SubjectID,
		Amount:        req.Amount,
		TimeSubmitted: s.now().UTC(),
	}
	if err := store.InsertMoneyResult(ctx, res); err != nil {
		return model.MoneyResult{}, err
	}
	return res, nil
}
