package api

import (
	"net/http"

	"github.com/lairofevil/standings/internal/auth"
	"github.com/lairofevil/standings/internal/domain/model"
)

// SeriesHandler handles best-of-three resolution and run audits.
type SeriesHandler struct {
	deps Dependencies
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps Dependencies) *SeriesHandler {
	return &SeriesHandler{deps: deps}
}

type resolveSeriesRequest struct {
	Games []model.SeriesGame `json:"games"`
}

// HandleResolve handles POST /series/resolve.
func (h *SeriesHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveSeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.ResolveSeries(r.Context(), auth.FromContext(r.Context()), req.Games)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAudit handles POST /audit.
func (h *SeriesHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Audit(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rep)
}
