package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"envisionWeb/internal/manifestation"
	"envisionWeb/internal/render"
	"envisionWeb/services"
)

// AudioFetcher opens an audio resource returned by the generation API.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, path string) (*http.Response, error)
}

type createPage struct {
	basePage
	Stage         services.Stage
	Steps         []manifestation.Step
	Step          manifestation.Step
	StepNumber    int
	IsFirst       bool
	IsLast        bool
	Values        map[string]string
	Missing       map[string]bool
	Error         string
	Manifestation string
	Sentences     []render.Sentence
	HasAudio      bool
	Saved         bool
}

type CreateHandler struct {
	createService *services.CreateService
	audio         AudioFetcher
	renderer      *render.Renderer
	logger        *zap.Logger
}

func NewCreateHandler(createService *services.CreateService, audio AudioFetcher, renderer *render.Renderer, logger *zap.Logger) *CreateHandler {
	return &CreateHandler{
		createService: createService,
		audio:         audio,
		renderer:      renderer,
		logger:        logger,
	}
}

func newCreatePage(sess services.CreateSession) createPage {
	wizard := sess.Wizard
	page := createPage{
		basePage:   basePage{Title: "Create Your Manifestation", Nav: "create"},
		Stage:      sess.Stage,
		Steps:      manifestation.Steps,
		Step:       wizard.Current(),
		StepNumber: wizard.Step,
		IsFirst:    wizard.IsFirst(),
		IsLast:     wizard.IsLast(),
		Values:     make(map[string]string),
		Error:      sess.LastError,
		HasAudio:   sess.AudioPath != nil && *sess.AudioPath != "",
		Saved:      sess.Saved,
	}
	for _, f := range page.Step.Fields {
		page.Values[f.Key] = wizard.Data.Field(f.Key)
	}
	if sess.Stage == services.StageOutput {
		page.Manifestation = sess.Manifestation
		page.Sentences = render.Highlight(sess.Manifestation)
	}
	return page
}

func (h *CreateHandler) Page(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	renderPage(w, h.renderer, h.logger, http.StatusOK, "create.html", newCreatePage(h.createService.Session(visitor)))
}

// Step handles the wizard's Back / Continue / Generate buttons.
func (h *CreateHandler) Step(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, h.renderer, h.logger, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	current := h.createService.Session(visitor).Wizard.Current()
	values := make(map[string]string, len(current.Fields))
	for _, f := range current.Fields {
		if _, present := r.PostForm[f.Key]; present {
			values[f.Key] = r.PostForm.Get(f.Key)
		}
	}

	action := services.ActionNext
	if r.PostForm.Get("action") == string(services.ActionBack) {
		action = services.ActionBack
	}

	// Generation outlives the browser request; the HTTP client timeout bounds it.
	sess, err := h.createService.Step(context.WithoutCancel(r.Context()), visitor, values, action)

	var verr *manifestation.ValidationError
	switch {
	case errors.As(err, &verr):
		page := newCreatePage(sess)
		page.Error = "Please fill in the required fields (at least 2 characters)."
		page.Missing = make(map[string]bool, len(verr.Fields))
		for _, key := range verr.Fields {
			page.Missing[key] = true
		}
		renderPage(w, h.renderer, h.logger, http.StatusUnprocessableEntity, "create.html", page)
		return
	case err != nil && !errors.Is(err, services.ErrGenerationInFlight):
		// The session is back on the form stage and carries the message.
		h.logger.Info("generation failed, returning to form", zap.String("visitor", visitor), zap.Error(err))
	}

	http.Redirect(w, r, "/create", http.StatusSeeOther)
}

func (h *CreateHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	if _, err := h.createService.Regenerate(context.WithoutCancel(r.Context()), visitor); err != nil {
		h.logger.Info("regeneration failed", zap.String("visitor", visitor), zap.Error(err))
	}
	http.Redirect(w, r, "/create", http.StatusSeeOther)
}

func (h *CreateHandler) Save(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	_, err := h.createService.Save(r.Context(), visitor)
	if err != nil && !errors.Is(err, services.ErrNothingToSave) {
		h.logger.Error("failed to save manifestation", zap.String("visitor", visitor), zap.Error(err))
		renderError(w, h.renderer, h.logger, http.StatusInternalServerError, "Your manifestation could not be saved. Please try again.")
		return
	}
	http.Redirect(w, r, "/create", http.StatusSeeOther)
}

func (h *CreateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	h.createService.Reset(visitor)
	http.Redirect(w, r, "/create", http.StatusSeeOther)
}

func (h *CreateHandler) Download(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	sess := h.createService.Session(visitor)
	if sess.Stage != services.StageOutput {
		renderError(w, h.renderer, h.logger, http.StatusNotFound, "There is no manifestation to download yet.")
		return
	}
	writeTextDownload(w, "manifestation.txt", sess.Manifestation)
}

func (h *CreateHandler) Audio(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	sess := h.createService.Session(visitor)
	if sess.Stage != services.StageOutput || sess.AudioPath == nil {
		http.NotFound(w, r)
		return
	}
	streamAudio(w, r, h.audio, h.logger, *sess.AudioPath)
}

func streamAudio(w http.ResponseWriter, r *http.Request, audio AudioFetcher, logger *zap.Logger, path string) {
	resp, err := audio.FetchAudio(r.Context(), path)
	if err != nil {
		logger.Warn("failed to fetch audio", zap.String("path", path), zap.Error(err))
		http.Error(w, "Audio not available", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, header := range []string{"Content-Type", "Content-Length", "Last-Modified", "ETag"} {
		if v := resp.Header.Get(header); v != "" {
			w.Header().Set(header, v)
		}
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Debug("audio stream interrupted", zap.Error(err))
	}
}
