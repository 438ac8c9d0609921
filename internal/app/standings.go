package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/standings"
	"github.com/lairofevil/standings/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// Grouping selects whose totals a standings table shows.
type Grouping string

// Supported groupings.
const (
	ByPlayer Grouping = "player"
	ByTeam   Grouping = "team"
)

// ParseGrouping validates s. The empty string groups by player.
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(s); g {
	case "":
		return ByPlayer, nil
	case ByPlayer, ByTeam:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown grouping %q", ErrInvalidInput, s)
	}
}

// StandingsView is a ranked table for one round.
type StandingsView struct {
	RoundID   string               `json:"roundId"`
	RoundName string               `json:"roundName"`
	Currency  model.Currency       `json:"currency"`
	By        Grouping             `json:"by"`
	Rows      []standings.Standing `json:"rows"`
	Names     map[string]string    `json:"names"`
}

// Standings ranks a round. Marks rounds total stored run marks; money rounds
// total recorded money results, whose subjects are already the ranked
// entities.
func (s *Service) Standings(ctx context.Context, roundID string, by Grouping) (view StandingsView, err error) {
	ctx, span, store, err := s.begin(ctx, "Standings", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return StandingsView{}, err
	}
	start := time.Now()

	round, err := store.GetRound(ctx, roundID)
	if err != nil {
		return StandingsView{}, fmt.Errorf("round %s: %w", roundID, err)
	}
	names, err := s.names(ctx)
	if err != nil {
		return StandingsView{}, err
	}

	var entries []standings.Entry
	switch round.Currency {
	case model.CurrencyMoney:
		results, err := store.ListMoneyResults(ctx, round.ID)
		if err != nil {
			return StandingsView{}, err
		}
		entries = standings.MoneyEntries(results)
	default:
		runs, err := store.ListRunsByRound(ctx, round.ID)
		if err != nil {
			return StandingsView{}, err
		}
		if by == ByTeam {
			teams, err := store.ListTeams(ctx)
			if err != nil {
				return StandingsView{}, err
			}
			entries = standings.TotalsByTeam(runs, teams)
		} else {
			entries = standings.TotalsByPlayer(runs)
		}
	}

	view = StandingsView{
		RoundID:   round.ID,
		RoundName: round.Name,
		Currency:  round.Currency,
		By:        by,
		Rows:      standings.Rank(entries),
		Names:     names,
	}
	span.SetAttributes(attribute.Int("standings.rows", len(view.Rows)))
	metrics.RecordStandingsComputed(string(round.Currency), float64(time.Since(start).Microseconds())/1000)
	return view, nil
}

// names maps player and team ids to display names.
func (s *Service) names(ctx context.Context) (map[string]string, error) {
	store, err := s.deps()
	if err != nil {
		return nil, err
	}
	players, err := store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(players)+len(teams))
	for _, p := range players {
		out[p.ID] = p.Name
	}
	for _, t := range teams {
		out[t.ID] = t.Name
	}
	return out, nil
}
