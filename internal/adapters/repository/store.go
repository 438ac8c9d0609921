// Package repository holds tournament records: runs, the roster, rounds,
// money results, vote sessions and votes.
//
// Records are written whole. Runs are never edited after insert; a mistaken
// run is deleted and submitted again.
package repository

import (
	"context"

	"github.com/lairofevil/standings/internal/domain/model"
)

// RunStore stores scored runs.
type RunStore interface {
	// InsertRun stores a scored run. Returns ErrConflict if the id is taken.
	InsertRun(ctx context.Context, run model.ScoredRun) error
	// DeleteRun removes a run. Returns ErrNotFound if it does not exist.
	DeleteRun(ctx context.Context, id string) error
	GetRun(ctx context.Context, id string) (model.ScoredRun, error)
	ListRunsByRound(ctx context.Context, roundID string) ([]model.ScoredRun, error)
	ListRunsByPlayer(ctx context.Context, playerID string) ([]model.ScoredRun, error)
	AllRuns(ctx context.Context) ([]model.ScoredRun, error)
}

// RosterStore stores players, teams, rounds and money results.
type RosterStore interface {
	UpsertPlayer(ctx context.Context, p model.Player) error
	GetPlayer(ctx context.Context, id string) (model.Player, error)
	ListPlayers(ctx context.Context) ([]model.Player, error)

	UpsertTeam(ctx context.Context, t model.Team) error
	ListTeams(ctx context.Context) ([]model.Team, error)

	// InsertRound stores a round. Returns ErrConflict if the id is taken.
	InsertRound(ctx context.Context, r model.Round) error
	GetRound(ctx context.Context, id string) (model.Round, error)
	ListRounds(ctx context.Context) ([]model.Round, error)

	InsertMoneyResult(ctx context.Context, r model.MoneyResult) error
	ListMoneyResults(ctx context.Context, roundID string) ([]model.MoneyResult, error)
}

// SessionStore stores vote sessions and their votes.
type SessionStore interface {
	InsertSession(ctx context.Context, s model.VoteSession) error
	GetSession(ctx context.Context, id string) (model.VoteSession, error)
	// CloseSession marks a session closed. Returns ErrClosed if it already is.
	CloseSession(ctx context.Context, s model.VoteSession) error
	// DeleteSession removes a session together with its votes and returns
	// the session as it was when removed.
	DeleteSession(ctx context.Context, id string) (model.VoteSession, error)

	// UpsertVote records a voter's choice. A voter has one vote per session;
	// changing it keeps the vote's original position. Returns ErrNotFound
	// for unknown sessions and ErrClosed for closed ones.
	UpsertVote(ctx context.Context, v model.Vote) error
	// ListVotes returns votes in the order voters first voted.
	ListVotes(ctx context.Context, sessionID string) ([]model.Vote, error)
}

// Store is the full record store.
type Store interface {
	RunStore
	RosterStore
	SessionStore

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
	Close() error
}
