package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"envisionWeb/internal/manifestation"
	"envisionWeb/internal/render"
	"envisionWeb/services"
)

type historyPage struct {
	basePage
	Query      string
	Empty      bool
	Items      []manifestation.SavedManifestation
	Selected   *manifestation.SavedManifestation
	SelectedID int64
}

type HistoryHandler struct {
	historyService *services.HistoryService
	audio          AudioFetcher
	renderer       *render.Renderer
	logger         *zap.Logger
}

func NewHistoryHandler(historyService *services.HistoryService, audio AudioFetcher, renderer *render.Renderer, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		audio:          audio,
		renderer:       renderer,
		logger:         logger,
	}
}

func historyURL(query string, selected int64) string {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if selected != 0 {
		params.Set("selected", strconv.FormatInt(selected, 10))
	}
	if len(params) == 0 {
		return "/history"
	}
	return "/history?" + params.Encode()
}

func (h *HistoryHandler) Page(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	selected, _ := strconv.ParseInt(r.URL.Query().Get("selected"), 10, 64)

	view, err := h.historyService.View(r.Context(), visitor, query, selected)
	if err != nil {
		h.logger.Error("failed to load history", zap.String("visitor", visitor), zap.Error(err))
		renderError(w, h.renderer, h.logger, http.StatusInternalServerError, "Your history could not be loaded.")
		return
	}

	page := historyPage{
		basePage: basePage{Title: "Your Manifestation History", Nav: "history"},
		Query:    query,
		Empty:    view.Total == 0,
		Items:    view.Items,
		Selected: view.Selected,
	}
	if view.Selected != nil {
		page.SelectedID = view.Selected.ID
	}

	renderPage(w, h.renderer, h.logger, http.StatusOK, "history.html", page)
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	id, ok := manifestationID(r)
	if !ok {
		renderError(w, h.renderer, h.logger, http.StatusBadRequest, "Invalid manifestation id.")
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, h.renderer, h.logger, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	selected, _ := strconv.ParseInt(r.PostForm.Get("selected"), 10, 64)

	if _, err := h.historyService.Delete(r.Context(), visitor, id); err != nil {
		h.logger.Error("failed to delete manifestation", zap.String("visitor", visitor), zap.Int64("id", id), zap.Error(err))
		renderError(w, h.renderer, h.logger, http.StatusInternalServerError, "The manifestation could not be deleted.")
		return
	}

	http.Redirect(w, r, historyURL(r.PostForm.Get("q"), services.SelectionAfterDelete(id, selected)), http.StatusSeeOther)
}

func (h *HistoryHandler) lookup(w http.ResponseWriter, r *http.Request) (*manifestation.SavedManifestation, bool) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return nil, false
	}
	id, ok := manifestationID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	record, err := h.historyService.Get(r.Context(), visitor, id)
	if errors.Is(err, services.ErrManifestationNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load manifestation", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return record, true
}

func (h *HistoryHandler) Download(w http.ResponseWriter, r *http.Request) {
	record, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeTextDownload(w, "manifestation-"+strconv.FormatInt(record.ID, 10)+".txt", record.Content)
}

func (h *HistoryHandler) Audio(w http.ResponseWriter, r *http.Request) {
	record, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if record.AudioPath == nil || *record.AudioPath == "" {
		http.NotFound(w, r)
		return
	}
	streamAudio(w, r, h.audio, h.logger, *record.AudioPath)
}
