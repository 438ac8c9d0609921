// Package standings turns per-subject totals into an ordered table.
//
// The same comparator serves marks rounds and money rounds, for players and
// for teams.
package standings

import (
	"cmp"
	"slices"
	"time"

	"github.com/lairofevil/standings/internal/domain/model"
)

// Entry is one subject's total before ranking.
type Entry struct {
	SubjectID string    `json:"subjectId"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// Standing is one row of a ranked table.
type Standing struct {
	// Rank is the competition rank. Equal scores share a rank (1, 1, 3).
	Rank int `json:"rank"`
	// Position is the 1-based display position and is always unique.
	Position  int     `json:"position"`
	SubjectID string  `json:"subjectId"`
	Score     float64 `json:"score"`
}

// compare orders by score descending, then earliest creation, then subject id.
func compare(a, b Entry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.SubjectID, b.SubjectID)
}

// Rank orders entries and assigns ranks. The input slice is not modified.
func Rank(entries []Entry) []Standing {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, compare)

	out := make([]Standing, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && e.Score == sorted[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = Standing{
			Rank:      rank,
			Position:  i + 1,
			SubjectID: e.SubjectID,
			Score:     e.Score,
		}
	}
	return out
}

// TotalsByPlayer sums marks per player. A player's CreatedAt is their
// earliest submission.
func TotalsByPlayer(runs []model.ScoredRun) []Entry {
	index := make(map[string]int)
	var out []Entry
	for _, r := range runs {
		i, ok := index[r.PlayerID]
		if !ok {
			index[r.PlayerID] = len(out)
			out = append(out, Entry{SubjectID: r.PlayerID, CreatedAt: r.TimeSubmitted})
			i = len(out) - 1
		}
		out[i].Score += float64(r.Marks)
		if r.TimeSubmitted.Before(out[i].CreatedAt) {
			out[i].CreatedAt = r.TimeSubmitted
		}
	}
	return out
}

// TotalsByTeam sums member marks per team. Teams without runs score 0 and
// keep their own creation time.
func TotalsByTeam(runs []model.ScoredRun, teams []model.Team) []Entry {
	byPlayer := make(map[string]Entry)
	for _, e := range TotalsByPlayer(runs) {
		byPlayer[e.SubjectID] = e
	}

	out := make([]Entry, 0, len(teams))
	for _, t := range teams {
		e := Entry{SubjectID: t.ID, CreatedAt: t.CreatedAt}
		seen := false
		for _, member := range t.Members {
			p, ok := byPlayer[member]
			if !ok {
				continue
			}
			e.Score += p.Score
			if !seen || p.CreatedAt.Before(e.CreatedAt) {
				e.CreatedAt = p.CreatedAt
			}
			seen = true
		}
		out = append(out, e)
	}
	return out
}

// MoneyEntries sums money results per subject.
func MoneyEntries(results []model.MoneyResult) []Entry {
	index := make(map[string]int)
	var out []Entry
	for _, r := range results {
		i, ok := index[r.SubjectID]
		if !ok {
			index[r.SubjectID] = len(out)
			out = append(out, Entry{SubjectID: r.SubjectID, CreatedAt: r.TimeSubmitted})
			i = len(out) - 1
		}
		out[i].Score += r.Amount
		if r.TimeSubmitted.Before(out[i].CreatedAt) {
			out[i].CreatedAt = r.TimeSubmitted
		}
	}
	return out
}

// Average returns total/n, or 0 when there is nothing to average.
func Average(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return total / float64(n)
}
