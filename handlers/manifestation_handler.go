package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"envisionWeb/internal/manifestation"
	"envisionWeb/services"
)

// ManifestationHandler is the JSON API over generation and history.
type ManifestationHandler struct {
	generator      services.Generator
	historyService *services.HistoryService
	logger         *zap.Logger
}

func NewManifestationHandler(generator services.Generator, historyService *services.HistoryService, logger *zap.Logger) *ManifestationHandler {
	return &ManifestationHandler{
		generator:      generator,
		historyService: historyService,
		logger:         logger,
	}
}

func (h *ManifestationHandler) GetWizardSteps(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, manifestation.Steps)
}

func (h *ManifestationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var data manifestation.FormData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var verr *manifestation.ValidationError
	if err := manifestation.Validate(data); errors.As(err, &verr) {
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Required fields are missing",
			"step":   verr.Step,
			"fields": verr.Fields,
		})
		return
	}

	result, err := h.generator.GenerateManifestation(context.WithoutCancel(r.Context()), data)
	if err != nil {
		h.logger.Error("error generating manifestation", zap.Error(err))

		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			respondWithError(w, http.StatusBadGateway, apiErr.Detail)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to generate manifestation")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ManifestationHandler) List(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.historyService.Search(ctx, visitor, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("failed to list manifestations", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

func (h *ManifestationHandler) Save(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	var req manifestation.SaveManifestationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondWithError(w, http.StatusBadRequest, "Content is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	record, err := h.historyService.Append(ctx, visitor, req)
	if err != nil {
		h.logger.Error("failed to save manifestation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to save manifestation")
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

func (h *ManifestationHandler) Get(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	id, ok := manifestationID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid manifestation id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	record, err := h.historyService.Get(ctx, visitor, id)
	if errors.Is(err, services.ErrManifestationNotFound) {
		respondWithError(w, http.StatusNotFound, "Manifestation not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get manifestation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load manifestation")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *ManifestationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	id, ok := manifestationID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid manifestation id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	removed, err := h.historyService.Delete(ctx, visitor, id)
	if err != nil {
		h.logger.Error("failed to delete manifestation", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete manifestation")
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Manifestation not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
