// Package scoring converts observed run facts into marks.
//
// Each tournament owns a rubric. Rubrics are separate types so that a change
// to one can never leak into the other.
package scoring

import (
	"errors"
	"strings"

	"github.com/lairofevil/standings/internal/domain/model"
)

// ErrUnknownVariant is returned when a rubric name is not recognised.
var ErrUnknownVariant = errors.New("unknown scoring variant")

// Variant tags which rubric scored a run.
type Variant string

// Known rubrics.
const (
	VariantCurrent Variant = "current"
	VariantLegacy  Variant = "legacy"
)

// ParseVariant validates a rubric name. The empty string selects the current rubric.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantCurrent, nil
	case VariantCurrent, VariantLegacy:
		return v, nil
	default:
		return "", ErrUnknownVariant
	}
}

// Evaluator describes a rubric.
type Evaluator interface {
	Variant() Variant
	// MaxMarks is the upper clamp applied to every result.
	MaxMarks() int
}

// Points per objective and the number of objectives that can be credited.
const (
	objectivePoints = 2
	maxObjectives   = 3
)

// ObjectiveCredit returns the marks earned for completed objectives.
func ObjectiveCredit(objectives ...bool) int {
	n := 0
	for _, done := range objectives {
		if done {
			n++
		}
	}
	return min(n, maxObjectives) * objectivePoints
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Current rubric weights.
const (
	currentGhostPicture = 5
	currentBonePicture  = 3
	currentSurvived     = 3
	currentCorrectGhost = 3
	currentPerfectGame  = 5
	currentMaxMarks     = 25
)

// Current is the rubric of the running tournament.
type Current struct{}

// Variant implements Evaluator.
func (Current) Variant() Variant { return VariantCurrent }

// MaxMarks implements Evaluator.
func (Current) MaxMarks() int { return currentMaxMarks }

// Evaluate scores f. Cursed item use is tracked but earns nothing.
func (Current) Evaluate(f model.RunFacts) int {
	marks := ObjectiveCredit(f.Objective1, f.Objective2, f.Objective3)
	if f.GhostPicture {
		marks += currentGhostPicture
	}
	if f.BonePicture {
		marks += currentBonePicture
	}
	if f.Survived {
		marks += currentSurvived
	}
	if f.CorrectGhostType {
		marks += currentCorrectGhost
	}
	if f.PerfectGame {
		marks += currentPerfectGame
	}
	return clamp(marks, 0, currentMaxMarks)
}

// Legacy rubric weights.
const (
	legacyGhostPicture = 3
	legacyBonePicture  = 2
	legacySurvived     = 2
	legacyDied         = -2
	legacyCorrectGhost = 3
	legacyMaxStars     = 3
	legacyMaxMarks     = 19
)

// Legacy is the rubric of the earlier tournament.
type Legacy struct{}

// Variant implements Evaluator.
func (Legacy) Variant() Variant { return VariantLegacy }

// MaxMarks implements Evaluator.
func (Legacy) MaxMarks() int { return legacyMaxMarks }

// Evaluate scores f. Dying costs marks; the total never drops below zero.
func (Legacy) Evaluate(f model.LegacyRunFacts) int {
	marks := ObjectiveCredit(f.Objective1, f.Objective2, f.Objective3)
	if f.GhostPicture {
		marks += legacyGhostPicture
	}
	if f.BonePicture {
		marks += legacyBonePicture
	}
	if f.Survived {
		marks += legacySurvived
	} else {
		marks += legacyDied
	}
	if f.CorrectGhostType {
		marks += legacyCorrectGhost
	}
	marks += clamp(f.PhotoStars, 0, legacyMaxStars)
	return clamp(marks, 0, legacyMaxMarks)
}

// Score evaluates a stored or submitted run under its variant. Legacy runs
// use the run's photo stars.
func Score(v Variant, f model.RunFacts, photoStars int) (int, error) {
	switch v {
	case VariantCurrent:
		return Current{}.Evaluate(f), nil
	case VariantLegacy:
		return Legacy{}.Evaluate(f.Legacy(photoStars)), nil
	default:
		return 0, ErrUnknownVariant
	}
}

// Rescore recomputes the marks of a stored run.
func Rescore(run model.ScoredRun) (int, error) {
	v, err := ParseVariant(run.Variant)
	if err != nil {
		return 0, err
	}
	return Score(v, run.RunFacts, run.PhotoStars)
}
