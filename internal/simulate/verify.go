package simulate

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/scoring"
	"github.com/lairofevil/standings/internal/domain/standings"
)

// row is the part of a standing that does not depend on submission times.
type row struct {
	Rank  int
	Score float64
}

// Expected scores the generated runs locally and ranks them the way the
// service should, by team when byTeam is set.
func Expected(t *Tournament, byTeam bool) ([]standings.Standing, error) {
	runs := make([]model.ScoredRun, 0, len(t.Runs))
	for _, s := range t.Runs {
		marks, err := scoring.Score(scoring.VariantCurrent, s.RunFacts, 0)
		if err != nil {
			return nil, err
		}
		runs = append(runs, model.ScoredRun{
			ID:       s.SubmissionID,
			PlayerID: s.PlayerID,
			RoundID:  s.RoundID,
			RunFacts: s.RunFacts,
			Marks:    marks,
		})
	}
	if byTeam {
		return standings.Rank(standings.TotalsByTeam(runs, t.Teams)), nil
	}
	return standings.Rank(standings.TotalsByPlayer(runs)), nil
}

// Compare checks served standings against expected ones. Position among
// equal scores depends on server timestamps, so only rank and score are
// compared per subject.
func Compare(expected, served []standings.Standing) error {
	index := func(rows []standings.Standing) map[string]row {
		m := make(map[string]row, len(rows))
		for _, r := range rows {
			m[r.SubjectID] = row{Rank: r.Rank, Score: r.Score}
		}
		return m
	}
	if diff := cmp.Diff(index(expected), index(served)); diff != "" {
		return fmt.Errorf("standings mismatch (-expected +served):\n%s", diff)
	}
	for i := 1; i < len(served); i++ {
		if served[i].Score > served[i-1].Score {
			return fmt.Errorf("standings not sorted at position %d", served[i].Position)
		}
	}
	return nil
}
