package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lairofevil/standings/internal/adapters/repository"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/tally"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
)

// OpenSession starts a vote session. Anonymity follows the session type.
func (s *Service) OpenSession(ctx context.Context, p auth.Principal, t model.SessionType) (vs model.VoteSession, err error) {
	ctx, span, store, err := s.begin(ctx, "OpenSession", p, auth.ActionOpenSession)
	defer func() { end(span, err) }()
	if err != nil {
		return model.VoteSession{}, err
	}
	if _, err := model.ParseSessionType(string(t)); err != nil {
		return model.VoteSession{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	vs = model.NewVoteSession(uuid.NewString(), t, s.now().UTC())
	if err := store.InsertSession(ctx, vs); err != nil {
		return model.VoteSession{}, err
	}
	metrics.RecordSessionOpened(string(t))
	s.logger.Info(ctx, "session opened",
		logger.String("session_id", vs.ID),
		logger.String("type", string(t)),
		logger.Bool("anonymous", vs.Anonymous),
	)
	return vs, nil
}

// CastVoteRequest is a vote submission. VoterUID and VoterName are only
// read when the caller is anonymous, which a RolePolicy never allows.
type CastVoteRequest struct {
	SessionID      string `json:"sessionId"`
	VoterUID       string `json:"voterUid,omitempty"`
	VoterName      string `json:"voterName,omitempty"`
	ChoicePlayerID string `json:"choicePlayerId"`
}

// CastVote records or replaces the caller's vote. The session must be open
// and the choice must be in the session's eligible pool.
func (s *Service) CastVote(ctx context.Context, p auth.Principal, req CastVoteRequest) (v model.Vote, err error) {
	ctx, span, store, err := s.begin(ctx, "CastVote", p, auth.ActionCastVote)
	defer func() { end(span, err) }()
	if err != nil {
		return model.Vote{}, err
	}

	v = model.Vote{
		SessionID:      req.SessionID,
		VoterUID:       p.Subject,
		VoterName:      p.Name,
		ChoicePlayerID: req.ChoicePlayerID,
		CreatedAt:      s.now().UTC(),
	}
	if p.Anonymous() {
		v.VoterUID, v.VoterName = req.VoterUID, req.VoterName
	}
	if v.VoterUID == "" || v.ChoicePlayerID == "" {
		return model.Vote{}, fmt.Errorf("%w: voter and choice are required", ErrInvalidInput)
	}

	vs, err := store.GetSession(ctx, req.SessionID)
	if err != nil {
		return model.Vote{}, fmt.Errorf("session %s: %w", req.SessionID, err)
	}
	if vs.Closed {
		return model.Vote{}, ErrSessionClosed
	}
	players, err := store.ListPlayers(ctx)
	if err != nil {
		return model.Vote{}, err
	}
	if !tally.IsEligible(vs.Type, players, v.ChoicePlayerID) {
		return model.Vote{}, fmt.Errorf("%w: %s", ErrNotEligible, v.ChoicePlayerID)
	}

	if err := store.UpsertVote(ctx, v); err != nil {
		return model.Vote{}, err
	}
	metrics.RecordVoteCast(string(vs.Type))
	return v, nil
}

// CloseSession stops a session from taking votes.
func (s *Service) CloseSession(ctx context.Context, p auth.Principal, id string) (vs model.VoteSession, err error) {
	ctx, span, store, err := s.begin(ctx, "CloseSession", p, auth.ActionCloseSession)
	defer func() { end(span, err) }()
	if err != nil {
		return model.VoteSession{}, err
	}
	vs, err = store.GetSession(ctx, id)
	if err != nil {
		return model.VoteSession{}, fmt.Errorf("session %s: %w", id, err)
	}
	if vs.Closed {
		return model.VoteSession{}, ErrSessionClosed
	}
	vs = vs.Close(s.now().UTC())
	if err := store.CloseSession(ctx, vs); err != nil {
		return model.VoteSession{}, err
	}
	metrics.RecordSessionClosed()
	return vs, nil
}

// DeleteSession removes a session and its votes.
func (s *Service) DeleteSession(ctx context.Context, p auth.Principal, id string) (err error) {
	ctx, span, store, err := s.begin(ctx, "DeleteSession", p, auth.ActionDeleteSession)
	defer func() { end(span, err) }()
	if err != nil {
		return err
	}
	removed, err := store.DeleteSession(ctx, id)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	if !removed.Closed {
		metrics.RecordSessionClosed()
	}
	return nil
}

// TallyView is a session's vote count.
type TallyView struct {
	Session model.VoteSession `json:"session"`
	tally.Result
}

// Tally counts a session's votes.
func (s *Service) Tally(ctx context.Context, p auth.Principal, id string) (view TallyView, err error) {
	ctx, span, store, err := s.begin(ctx, "Tally", p, auth.ActionViewTally)
	defer func() { end(span, err) }()
	if err != nil {
		return TallyView{}, err
	}
	vs, votes, err := sessionVotes(ctx, store, id)
	if err != nil {
		return TallyView{}, err
	}
	return TallyView{Session: vs, Result: tally.Tally(votes)}, nil
}

// Reveal returns who voted for whom, newest first. Anonymous sessions
// return tally.ErrAnonymous.
func (s *Service) Reveal(ctx context.Context, p auth.Principal, id string) (revealed []tally.RevealedVote, err error) {
	ctx, span, store, err := s.begin(ctx, "Reveal", p, auth.ActionRevealVotes)
	defer func() { end(span, err) }()
	if err != nil {
		return nil, err
	}
	vs, votes, err := sessionVotes(ctx, store, id)
	if err != nil {
		return nil, err
	}
	return tally.Reveal(vs, votes)
}

// EligibleChoices lists who may be chosen in a session.
func (s *Service) EligibleChoices(ctx context.Context, id string) (players []model.Player, err error) {
	ctx, span, store, err := s.begin(ctx, "EligibleChoices", auth.Principal{}, "")
	defer func() { end(span, err) }()
	if err != nil {
		return nil, err
	}
	vs, err := store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	roster, err := store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return tally.EligibleChoices(vs.Type, roster), nil
}

func sessionVotes(ctx context.Context, store repository.SessionStore, id string) (model.VoteSession, []model.Vote, error) {
	vs, err := store.GetSession(ctx, id)
	if err != nil {
		return model.VoteSession{}, nil, fmt.Errorf("session %s: %w", id, err)
	}
	votes, err := store.ListVotes(ctx, id)
	if err != nil {
		return model.VoteSession{}, nil, err
	}
	return vs, votes, nil
}
