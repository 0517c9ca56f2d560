package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"envisionWeb/internal/render"
)

type basePage struct {
	Title string
	Nav   string
}

type errorPage struct {
	basePage
	Message string
}

type PageHandler struct {
	renderer *render.Renderer
	logger   *zap.Logger
}

func NewPageHandler(renderer *render.Renderer, logger *zap.Logger) *PageHandler {
	return &PageHandler{renderer: renderer, logger: logger}
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.renderer, h.logger, http.StatusOK, "landing.html", basePage{Title: "Manifest Your Vision", Nav: "home"})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, h.renderer, h.logger, http.StatusNotFound, "We couldn't find that page.")
}

func renderPage(w http.ResponseWriter, renderer *render.Renderer, logger *zap.Logger, code int, page string, data any) {
	if err := renderer.Render(w, code, page, data); err != nil {
		logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func renderError(w http.ResponseWriter, renderer *render.Renderer, logger *zap.Logger, code int, message string) {
	renderPage(w, renderer, logger, code, "error.html", errorPage{
		basePage: basePage{Title: http.StatusText(code)},
		Message:  message,
	})
}
