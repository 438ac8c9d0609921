// Package model contains domain models passed between layers.
//
// JSON field names mirror the keys the record store already holds
// (PlayerId, RoundId, Marks, TimeSubmitted, ...) and must not change.
package model

import "time"

// RunFacts is the observed outcome of a single attempt. Absent booleans
// decode as false.
type RunFacts struct {
	Objective1       bool   `json:"Objective1"`
	Objective2       bool   `json:"Objective2"`
	Objective3       bool   `json:"Objective3"`
	GhostPicture     bool   `json:"GhostPicture"`
	BonePicture      bool   `json:"BonePicture"`
	CursedItemUse    bool   `json:"CursedItemUse"`
	CorrectGhostType bool   `json:"CorrectGhostType"`
	Survived         bool   `json:"Survived"`
	PerfectGame      bool   `json:"PerfectGame"`
	Notes            string `json:"Notes,omitempty"`
}

// LegacyRunFacts is the input shape of the legacy tournament rubric.
type LegacyRunFacts struct {
	Objective1       bool `json:"Objective1"`
	Objective2       bool `json:"Objective2"`
	Objective3       bool `json:"Objective3"`
	GhostPicture     bool `json:"GhostPicture"`
	BonePicture      bool `json:"BonePicture"`
	CorrectGhostType bool `json:"CorrectGhostType"`
	Survived         bool `json:"Survived"`
	// PhotoStars is the star rating (0-3) of the best photo taken.
	PhotoStars int `json:"PhotoStars"`
}

// Legacy projects the facts onto the legacy rubric's input. Photo stars are
// not part of RunFacts and are supplied separately.
func (f RunFacts) Legacy(photoStars int) LegacyRunFacts {
	return LegacyRunFacts{
		Objective1:       f.Objective1,
		Objective2:       f.Objective2,
		Objective3:       f.Objective3,
		GhostPicture:     f.GhostPicture,
		BonePicture:      f.BonePicture,
		CorrectGhostType: f.CorrectGhostType,
		Survived:         f.Survived,
		PhotoStars:       photoStars,
	}
}

// ScoredRun is an immutable, scored run record.
type ScoredRun struct {
	ID       string `json:"Id"`
	PlayerID string `json:"PlayerId"`
	RoundID  string `json:"RoundId"`
	RunFacts
	PhotoStars    int       `json:"PhotoStars,omitempty"`
	Marks         int       `json:"Marks"`
	Variant       string    `json:"Variant"`
	Officer       string    `json:"Officer"`
	TimeSubmitted time.Time `json:"TimeSubmitted"`
	// SubmissionID is the client's retry key, if one was sent.
	SubmissionID string `json:"SubmissionId,omitempty"`
}
