// Package tally counts session votes and decides who may be chosen.
package tally

import (
	"errors"
	"slices"
	"time"

	"github.com/lairofevil/standings/internal/domain/model"
)

// ErrAnonymous is returned when a caller asks for voter identities of an
// anonymous session.
var ErrAnonymous = errors.New("session is anonymous")

// Count is the number of votes for one choice.
type Count struct {
	ChoiceID string `json:"choiceId"`
	Votes    int    `json:"votes"`
}

// Result is the outcome of counting a session.
type Result struct {
	Counts      map[string]int `json:"counts"`
	Order       []Count        `json:"order"`
	TopChoiceID string         `json:"topChoiceId,omitempty"`
	HasTop      bool           `json:"hasTop"`
	// Tied is set when more than one choice shares the top count. TopChoiceID
	// then holds the one that received its first vote earliest.
	Tied bool `json:"tied"`
}

// Tally groups votes by choice. Choices with equal counts stay in the order
// of their first vote.
func Tally(votes []model.Vote) Result {
	res := Result{Counts: make(map[string]int)}
	for _, v := range votes {
		if _, ok := res.Counts[v.ChoicePlayerID]; !ok {
			res.Order = append(res.Order, Count{ChoiceID: v.ChoicePlayerID})
		}
		res.Counts[v.ChoicePlayerID]++
	}
	for i := range res.Order {
		res.Order[i].Votes = res.Counts[res.Order[i].ChoiceID]
	}
	slices.SortStableFunc(res.Order, func(a, b Count) int {
		return b.Votes - a.Votes
	})

	if len(res.Order) > 0 {
		res.TopChoiceID = res.Order[0].ChoiceID
		res.HasTop = true
		res.Tied = len(res.Order) > 1 && res.Order[1].Votes == res.Order[0].Votes
	}
	return res
}

// EligibleChoices returns the players who may be chosen in a session of
// type t. Immune players are excluded from vote-outs only.
func EligibleChoices(t model.SessionType, players []model.Player) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if !p.Active {
			continue
		}
		if t == model.SessionVoteOut && p.Immune {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsEligible reports whether playerID is in the eligible pool.
func IsEligible(t model.SessionType, players []model.Player, playerID string) bool {
	return slices.ContainsFunc(EligibleChoices(t, players), func(p model.Player) bool {
		return p.ID == playerID
	})
}

// RevealedVote is one entry of a non-anonymous vote log.
type RevealedVote struct {
	VoterUID       string    `json:"voterUid"`
	VoterName      string    `json:"voterName"`
	ChoicePlayerID string    `json:"choicePlayerId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Reveal returns the vote log newest first. Anonymous sessions never expose
// voters.
func Reveal(session model.VoteSession, votes []model.Vote) ([]RevealedVote, error) {
	if session.Anonymous {
		return nil, ErrAnonymous
	}
	out := make([]RevealedVote, 0, len(votes))
	for _, v := range votes {
		out = append(out, RevealedVote{
			VoterUID:       v.VoterUID,
			VoterName:      v.VoterName,
			ChoicePlayerID: v.ChoicePlayerID,
			CreatedAt:      v.CreatedAt,
		})
	}
	slices.SortStableFunc(out, func(a, b RevealedVote) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
