package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Dosada05/tournament-draw/services"
	"github.com/Dosada05/tournament-draw/storage"
	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 20

type DrawHandler struct {
	drawService services.DrawService
}

func NewDrawHandler(drawService services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: drawService}
}

func (h *DrawHandler) RunDraw(w http.ResponseWriter, r *http.Request) {
	var input services.DrawInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Entrants) == 0 {
		badRequestResponse(w, r, errors.New("at least one entrant is required"))
		return
	}

	run, err := h.drawService.RunDraw(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := http.Header{}
	headers.Set("Location", "/draws/"+run.ID.String())
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": run}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DrawHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			badRequestResponse(w, r, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = v
	}

	runs, err := h.drawService.ListRuns(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"draws": runs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DrawHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := runIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	run, err := h.drawService.GetRun(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": run}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DrawHandler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := runIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.drawService.DeleteRun(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DrawHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := runIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	classKey, err := url.PathUnescape(chi.URLParam(r, "classKey"))
	if err != nil || classKey == "" {
		badRequestResponse(w, r, errors.New("invalid competition class"))
		return
	}
	index, err := intParam(r, "index")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.drawService.Snapshot(r.Context(), id, classKey, index)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DrawHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := runIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	data, err := h.drawService.Export(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", storage.CSVContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "draw_"+id.String()+".csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *DrawHandler) BuildBrackets(w http.ResponseWriter, r *http.Request) {
	var input services.BracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	out, err := h.drawService.BuildBrackets(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"brackets": out}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
