package api

import (
	"net/http"

	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
)

// RosterHandler handles players and teams.
type RosterHandler struct {
	deps Dependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

// HandleListPlayers handles GET /players.
func (h *RosterHandler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.ListPlayers(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandlePutPlayer handles PUT /players/{id}. The path id wins over the body.
func (h *RosterHandler) HandlePutPlayer(w http.ResponseWriter, r *http.Request) {
	var p model.Player
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p.ID = r.PathValue("id")
	if err := h.deps.UpsertPlayer(r.Context(), auth.FromContext(r.Context()), p); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSummary handles GET /players/{id}/summary.
func (h *RosterHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.PlayerSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleListTeams handles GET /teams.
func (h *RosterHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.ListTeams(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandlePutTeam handles PUT /teams/{id}.
func (h *RosterHandler) HandlePutTeam(w http.ResponseWriter, r *http.Request) {
	var t model.Team
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	t.ID = r.PathValue("id")
	saved, err := h.deps.UpsertTeam(r.Context(), auth.FromContext(r.Context()), t)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
