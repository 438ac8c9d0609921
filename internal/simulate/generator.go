package simulate

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/lairofevil/standings/internal/domain/model"
)

// Tournament is a generated roster and the runs to submit for one round.
type Tournament struct {
	RoundID string
	Players []model.Player
	Teams   []model.Team
	Runs    []Submission
}

// Submission is one generated run.
type Submission struct {
	SubmissionID string `json:"submissionId"`
	PlayerID     string `json:"playerId"`
	RoundID      string `json:"roundId"`
	model.RunFacts
}

// Generate builds a deterministic tournament from cfg.Seed.
func Generate(cfg *Config) (*Tournament, error) {
	if cfg.Players <= 0 || cfg.RunsPerPlayer < 0 {
		return nil, fmt.Errorf("players must be positive and runs non-negative")
	}
	faker := gofakeit.New(cfg.Seed)

	t := &Tournament{RoundID: "sim-" + faker.UUID()}
	for i := range cfg.Players {
		t.Players = append(t.Players, model.Player{
			ID:     fmt.Sprintf("p%03d", i+1),
			Name:   faker.Name(),
			Active: true,
		})
	}

	if cfg.Teams > 0 {
		for i := range cfg.Teams {
			t.Teams = append(t.Teams, model.Team{
				ID:   fmt.Sprintf("t%02d", i+1),
				Name: faker.Color() + " " + faker.Animal(),
			})
		}
		for i, p := range t.Players {
			team := &t.Teams[i%cfg.Teams]
			team.Members = append(team.Members, p.ID)
		}
	}

	for _, p := range t.Players {
		for range cfg.RunsPerPlayer {
			var facts model.RunFacts
			if err := faker.Struct(&facts); err != nil {
				return nil, fmt.Errorf("generate run facts: %w", err)
			}
			facts.Notes = ""
			t.Runs = append(t.Runs, Submission{
				SubmissionID: faker.UUID(),
				PlayerID:     p.ID,
				RoundID:      t.RoundID,
				RunFacts:     facts,
			})
		}
	}
	return t, nil
}
