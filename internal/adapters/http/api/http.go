// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/internal/domain/tally"
	"github.com/lairofevil/standings/pkg/logger"
	"github.com/lairofevil/standings/pkg/metrics"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	SubmitRun(ctx context.Context, p auth.Principal, req service.SubmitRunRequest) (model.ScoredRun, error)
	DeleteRun(ctx context.Context, p auth.Principal, id string) error
	GetRun(ctx context.Context, id string) (model.ScoredRun, error)
	PlayerSummary(ctx context.Context, playerID string) (service.PlayerSummary, error)

	UpsertPlayer(ctx context.Context, p auth.Principal, player model.Player) error
	ListPlayers(ctx context.Context) ([]model.Player, error)
	UpsertTeam(ctx context.Context, p auth.Principal, team model.Team) (model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)

	CreateRound(ctx context.Context, p auth.Principal, req service.CreateRoundRequest) (model.Round, error)
	ListRounds(ctx context.Context) ([]model.Round, error)
	RecordMoneyResult(ctx context.Context, p auth.Principal, req service.MoneyResultRequest) (model.MoneyResult, error)
	Standings(ctx context.Context, roundID string, by service.Grouping) (service.StandingsView, error)

	OpenSession(ctx context.Context, p auth.Principal, t model.SessionType) (model.VoteSession, error)
	CastVote(ctx context.Context, p auth.Principal, req service.CastVoteRequest) (model.Vote, error)
	CloseSession(ctx context.Context, p auth.Principal, id string) (model.VoteSession, error)
	DeleteSession(ctx context.Context, p auth.Principal, id string) error
	Tally(ctx context.Context, p auth.Principal, id string) (service.TallyView, error)
	Reveal(ctx context.Context, p auth.Principal, id string) ([]tally.RevealedVote, error)
	EligibleChoices(ctx context.Context, id string) ([]model.Player, error)

	ResolveSeries(ctx context.Context, p auth.Principal, games []model.SeriesGame) (service.SeriesResult, error)
	Audit(ctx context.Context, p auth.Principal) (service.AuditReport, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	runsHandler     *RunsHandler
	rosterHandler   *RosterHandler
	roundsHandler   *RoundsHandler
	sessionsHandler *SessionsHandler
	seriesHandler   *SeriesHandler

	authn   *Authenticator
	limiter *IPRateLimiter
}

// NewServer creates a new API server with all handlers. A nil verifier
// leaves every request anonymous and a nil limiter disables vote rate
// limiting.
func NewServer(deps Dependencies, verifier *auth.TokenVerifier, limiter *IPRateLimiter) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		runsHandler:     NewRunsHandler(deps),
		rosterHandler:   NewRosterHandler(deps),
		roundsHandler:   NewRoundsHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
		seriesHandler:   NewSeriesHandler(deps),
		authn:           NewAuthenticator(verifier),
		limiter:         limiter,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(s.authn.Middleware(h), endpoint))
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	route("POST /runs", "runs", s.runsHandler.HandleSubmit)
	route("GET /runs/{id}", "runs", s.runsHandler.HandleGet)
	route("DELETE /runs/{id}", "runs", s.runsHandler.HandleDelete)

	route("GET /players", "players", s.rosterHandler.HandleListPlayers)
	route("PUT /players/{id}", "players", s.rosterHandler.HandlePutPlayer)
	route("GET /players/{id}/summary", "players", s.rosterHandler.HandleSummary)
	route("GET /teams", "teams", s.rosterHandler.HandleListTeams)
	route("PUT /teams/{id}", "teams", s.rosterHandler.HandlePutTeam)

	route("GET /rounds", "rounds", s.roundsHandler.HandleList)
	route("POST /rounds", "rounds", s.roundsHandler.HandleCreate)
	route("POST /rounds/{id}/results", "rounds", s.roundsHandler.HandleRecordMoney)
	route("GET /rounds/{id}/standings", "standings", s.roundsHandler.HandleStandings)
	route("GET /rounds/{id}/standings.xlsx", "standings_xlsx", s.roundsHandler.HandleStandingsXLSX)
	route("GET /rounds/{id}/standings.png", "standings_png", s.roundsHandler.HandleStandingsPNG)

	vote := s.sessionsHandler.HandleCastVote
	if s.limiter != nil {
		vote = s.limiter.Middleware(vote)
	}
	route("POST /sessions", "sessions", s.sessionsHandler.HandleOpen)
	route("POST /sessions/{id}/votes", "votes", vote)
	route("GET /sessions/{id}/votes", "votes", s.sessionsHandler.HandleReveal)
	route("POST /sessions/{id}/close", "sessions", s.sessionsHandler.HandleClose)
	route("DELETE /sessions/{id}", "sessions", s.sessionsHandler.HandleDelete)
	route("GET /sessions/{id}/tally", "tally", s.sessionsHandler.HandleTally)
	route("GET /sessions/{id}/choices", "sessions", s.sessionsHandler.HandleChoices)

	route("POST /series/resolve", "series", s.seriesHandler.HandleResolve)
	route("POST /audit", "audit", s.seriesHandler.HandleAudit)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// writeServiceError maps service and domain errors onto HTTP statuses.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= statusInternalError {
		metrics.RecordErrorByComponent("http", code)
		logger.Get().Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrWrongCurrency),
		errors.Is(err, service.ErrNotEligible),
		errors.Is(err, model.ErrUnknownSessionType):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidSignature):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, auth.ErrLegacyGate):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, tally.ErrAnonymous):
		return http.StatusForbidden, "anonymous_session"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSessionClosed):
		return http.StatusConflict, "session_closed"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
