package api

import (
	"fmt"
	"net/http"

	"github.com/lairofevil/standings/internal/adapters/export"
	service "github.com/lairofevil/standings/internal/app"
	"github.com/lairofevil/standings/internal/auth"
)

// Content types for standings exports.
const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePNG  = "image/png"
)

// RoundsHandler handles rounds, money results and standings.
type RoundsHandler struct {
	deps Dependencies
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps Dependencies) *RoundsHandler {
	return &RoundsHandler{deps: deps}
}

// HandleList handles GET /rounds.
func (h *RoundsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.deps.ListRounds(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

// HandleCreate handles POST /rounds.
func (h *RoundsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	round, err := h.deps.CreateRound(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// HandleRecordMoney handles POST /rounds/{id}/results.
func (h *RoundsHandler) HandleRecordMoney(w http.ResponseWriter, r *http.Request) {
	var req service.MoneyResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.RoundID = r.PathValue("id")
	res, err := h.deps.RecordMoneyResult(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleStandings handles GET /rounds/{id}/standings?by=player|team.
func (h *RoundsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	view, err := h.standings(r)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStandingsXLSX handles GET /rounds/{id}/standings.xlsx.
func (h *RoundsHandler) HandleStandingsXLSX(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, contentTypeXLSX, "xlsx", export.XLSX)
}

// HandleStandingsPNG handles GET /rounds/{id}/standings.png.
func (h *RoundsHandler) HandleStandingsPNG(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, contentTypePNG, "png", export.PNG)
}

func (h *RoundsHandler) standings(r *http.Request) (service.StandingsView, error) {
	by, err := service.ParseGrouping(r.URL.Query().Get("by"))
	if err != nil {
		return service.StandingsView{}, err
	}
	return h.deps.Standings(r.Context(), r.PathValue("id"), by)
}

func (h *RoundsHandler) render(w http.ResponseWriter, r *http.Request, contentType, ext string, fn func(export.Table) ([]byte, error)) {
	view, err := h.standings(r)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	body, err := fn(export.Table{
		Title:    view.RoundName,
		Currency: string(view.Currency),
		Rows:     view.Rows,
		Names:    view.Names,
	})
	if err != nil {
		writeServiceError(r.Context(), w, fmt.Errorf("render %s: %w", ext, err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "standings-"+view.RoundID+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
