// Package series resolves best-of-three head-to-head series.
package series

import "github.com/lairofevil/standings/internal/domain/model"

// MaxGames is the number of games a series can count.
const MaxGames = 3

// Decision is a game outcome together with how it was obtained.
type Decision struct {
	Outcome model.Outcome       `json:"outcome"`
	Source  model.OutcomeSource `json:"source"`
}

// DeriveGame decides a single game. A recorded outcome wins over marks;
// marks decide only when both runs are known.
func DeriveGame(game model.SeriesGame, p1Marks, p2Marks *int) Decision {
	if game.Outcome.Decided() {
		return Decision{Outcome: game.Outcome, Source: model.SourceExplicit}
	}
	if p1Marks == nil || p2Marks == nil {
		return Decision{Outcome: model.OutcomePending, Source: model.SourceNone}
	}
	switch {
	case *p1Marks > *p2Marks:
		return Decision{Outcome: model.OutcomePlayer1, Source: model.SourceDerived}
	case *p2Marks > *p1Marks:
		return Decision{Outcome: model.OutcomePlayer2, Source: model.SourceDerived}
	default:
		return Decision{Outcome: model.OutcomeTie, Source: model.SourceDerived}
	}
}

func wins(outcomes []model.Outcome) (p1, p2 int) {
	if len(outcomes) > MaxGames {
		outcomes = outcomes[:MaxGames]
	}
	for _, o := range outcomes {
		switch o {
		case model.OutcomePlayer1:
			p1++
		case model.OutcomePlayer2:
			p2++
		}
	}
	return p1, p2
}

// Resolve returns the series winner. Pending games are ignored and only the
// first MaxGames count. Equal wins, including none at all, is a tie.
func Resolve(outcomes []model.Outcome) model.Outcome {
	p1, p2 := wins(outcomes)
	switch {
	case p1 > p2:
		return model.OutcomePlayer1
	case p2 > p1:
		return model.OutcomePlayer2
	default:
		return model.OutcomeTie
	}
}

// Game3Required reports whether a third game is still needed. It is not
// once the first two games went to the same player.
func Game3Required(outcomes []model.Outcome) bool {
	if len(outcomes) < 2 {
		return true
	}
	first, second := outcomes[0], outcomes[1]
	if first == second && (first == model.OutcomePlayer1 || first == model.OutcomePlayer2) {
		return false
	}
	return true
}
