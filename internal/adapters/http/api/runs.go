package api

import (
	"net/http"

	service "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/auth"
)

// RunsHandler handles run submission and lookup.
type RunsHandler struct {
	deps Dependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandleSubmit handles POST /runs.
func (h *RunsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	run, err := h.deps.SubmitRun(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// HandleGet handles GET /runs/{id}.
func (h *RunsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.deps.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleDelete handles DELETE /runs/{id}.
func (h *RunsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteRun(r.Context(), auth.FromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
