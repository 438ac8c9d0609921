package model

// Outcome is the result of a single game or of a whole series.
type Outcome string

// Outcomes as stored by the admin UI.
const (
	OutcomePlayer1 Outcome = "Player 1"
	OutcomePlayer2 Outcome = "Player 2"
	OutcomeTie     Outcome = "Tie"
	OutcomePending Outcome = "Pending"
)

// Decided reports whether o is a final game result.
func (o Outcome) Decided() bool {
	return o == OutcomePlayer1 || o == OutcomePlayer2 || o == OutcomeTie
}

// Known reports whether o is unset or one of the outcomes above.
func (o Outcome) Known() bool {
	return o == "" || o == OutcomePending || o.Decided()
}

// OutcomeSource records how a game outcome was obtained.
type OutcomeSource string

// Outcome provenance.
const (
	SourceExplicit OutcomeSource = "explicit"
	SourceDerived  OutcomeSource = "derived"
	SourceNone     OutcomeSource = "none"
)

// SeriesGame is one game of a best-of-three.
type SeriesGame struct {
	P1RunID string  `json:"p1RunId,omitempty"`
	P2RunID string  `json:"p2RunId,omitempty"`
	Outcome Outcome `json:"outcome,omitempty"`
}
