package model

import (
	"errors"
	"time"
)

// ErrUnknownSessionType is returned for session types other than vote-out and pick-ally.
var ErrUnknownSessionType = errors.New("unknown session type")

// SessionType selects what a vote session decides.
type SessionType string

// Session types.
const (
	SessionVoteOut  SessionType = "vote-out"
	SessionPickAlly SessionType = "pick-ally"
)

// ParseSessionType validates s.
func ParseSessionType(s string) (SessionType, error) {
	switch t := SessionType(s); t {
	case SessionVoteOut, SessionPickAlly:
		return t, nil
	default:
		return "", ErrUnknownSessionType
	}
}

// Anonymous reports whether votes in sessions of this type hide voter identity.
func (t SessionType) Anonymous() bool {
	return t == SessionVoteOut
}

// VoteSession collects votes for one decision.
type VoteSession struct {
	ID        string      `json:"Id"`
	Type      SessionType `json:"Type"`
	Anonymous bool        `json:"Anonymous"`
	Closed    bool        `json:"Closed"`
	CreatedAt time.Time   `json:"CreatedAt"`
	ClosedAt  *time.Time  `json:"ClosedAt,omitempty"`
}

// NewVoteSession opens a session. Anonymity always follows the type.
func NewVoteSession(id string, t SessionType, now time.Time) VoteSession {
	return VoteSession{
		ID:        id,
		Type:      t,
		Anonymous: t.Anonymous(),
		CreatedAt: now,
	}
}

// Close returns a closed copy of the session.
func (s VoteSession) Close(now time.Time) VoteSession {
	s.Closed = true
	s.ClosedAt = &now
	return s
}

// Vote is one voter's choice within a session.
type Vote struct {
	SessionID      string    `json:"SessionId"`
	VoterUID       string    `json:"VoterUid"`
	VoterName      string    `json:"VoterName"`
	ChoicePlayerID string    `json:"ChoicePlayerId"`
	CreatedAt      time.Time `json:"CreatedAt"`
}
