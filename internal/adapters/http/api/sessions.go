package api

import (
	"net/http"

	service "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
)

// SessionsHandler handles vote sessions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type openSessionRequest struct {
	Type model.SessionType `json:"type"`
}

// HandleOpen handles POST /sessions.
func (h *SessionsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	vs, err := h.deps.OpenSession(r.Context(), auth.FromContext(r.Context()), req.Type)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vs)
}

// HandleCastVote handles POST /sessions/{id}/votes.
func (h *SessionsHandler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	var req service.CastVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.SessionID = r.PathValue("id")
	v, err := h.deps.CastVote(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleReveal handles GET /sessions/{id}/votes.
func (h *SessionsHandler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	votes, err := h.deps.Reveal(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// HandleClose handles POST /sessions/{id}/close.
func (h *SessionsHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	vs, err := h.deps.CloseSession(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, vs)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), auth.FromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTally handles GET /sessions/{id}/tally.
func (h *SessionsHandler) HandleTally(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Tally(r.Context(), auth.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleChoices handles GET /sessions/{id}/choices.
func (h *SessionsHandler) HandleChoices(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.EligibleChoices(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}
