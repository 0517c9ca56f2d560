package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"envisionWeb/internal/manifestation"
	"envisionWeb/internal/render"
	"envisionWeb/internal/storage"
	"envisionWeb/middleware"
	"envisionWeb/services"
)

type testApp struct {
	router  http.Handler
	history *services.HistoryService
	visitor string
	fail    atomic.Bool
	calls   atomic.Int32
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zap.NewNop()
	app := &testApp{visitor: uuid.NewString()}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate-manifestation":
			app.calls.Add(1)
			if app.fail.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, `{"detail":"model offline"}`)
				return
			}
			var req manifestation.GenerateRequest
			json.NewDecoder(r.Body).Decode(&req)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"manifestation_text": "Dear " + req.PreferredName + ", breathe. I am abundant. I attract " + req.ManifestationFocus + ".",
				"audio_path":         "/static/audio/voice.mp3",
				"qdrant_point_id":    nil,
				"message":            "Manifestation generated successfully",
			})
		case "/static/audio/voice.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
			io.WriteString(w, "ID3-audio")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	client, err := services.NewGenerationClient(upstream.URL, 5*time.Second, logger)
	require.NoError(t, err)

	renderer, err := render.New()
	require.NoError(t, err)

	app.history = services.NewHistoryService(storage.NewMemoryStore(), logger)
	create := services.NewCreateService(client, app.history, time.Hour, logger)

	r := mux.NewRouter()
	r.Use(middleware.VisitorMiddleware(false))
	RegisterRoutes(r,
		NewPageHandler(renderer, logger),
		NewCreateHandler(create, client, renderer, logger),
		NewHistoryHandler(app.history, client, renderer, logger),
		NewManifestationHandler(client, app.history, logger),
	)
	app.router = r
	return app
}

func (a *testApp) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(middleware.VisitorHeader, a.visitor)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) postForm(target string, values url.Values) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (a *testApp) completeWizard(t *testing.T) {
	t.Helper()
	steps := []url.Values{
		{"name": {"Asha"}, "birthDate": {"1994-03-12"}, "birthTime": {"06:30"}, "action": {"next"}},
		{"birthPlace": {"Chennai"}, "nakshatra": {"Ashwini Padam 1"}, "lagna": {"Mesha"}, "action": {"next"}},
		{"strengths": {"Patience"}, "action": {"next"}},
		{"nextYearGoals": {"Run a marathon"}, "lifeGoals": {"By 40: open a school"}, "manifestationWish": {"calm confidence"}, "action": {"next"}},
	}
	for _, values := range steps {
		rr := a.postForm("/create/step", values)
		require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	}
}

func TestLandingPage(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(http.MethodGet, "/", nil, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Start Manifesting")
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreate_IncompleteStepStays(t *testing.T) {
	app := newTestApp(t)

	rr := app.postForm("/create/step", url.Values{"name": {"A"}, "birthDate": {"1994-03-12"}, "action": {"next"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "field invalid")

	rr = app.do(http.MethodGet, "/create", nil, "")
	assert.Contains(t, rr.Body.String(), "Personal Info")
	assert.Contains(t, rr.Body.String(), `value="A"`)
	assert.NotContains(t, rr.Body.String(), "Nakshatra (with Padam)")
}

func TestCreate_FullFlowAndSave(t *testing.T) {
	app := newTestApp(t)
	app.completeWizard(t)

	rr := app.do(http.MethodGet, "/create", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Embrace Your Vision")
	assert.Contains(t, body, `<span class="affirmation">I am abundant.</span>`)
	assert.Contains(t, body, `src="/create/audio"`)

	rr = app.postForm("/create/save", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	rr = app.postForm("/create/save", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = app.do(http.MethodGet, "/create", nil, "")
	assert.Contains(t, rr.Body.String(), "✓ Saved")

	records, err := app.history.List(t.Context(), app.visitor)
	require.NoError(t, err)
	require.Len(t, records, 1, "saving twice appends once")
	assert.Equal(t, "By 40: open a school", records[0].LifeGoals())

	rr = app.do(http.MethodGet, "/create/download", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "manifestation.txt")
	assert.Contains(t, rr.Body.String(), "I am abundant.")

	rr = app.do(http.MethodGet, "/create/audio", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ID3-audio", rr.Body.String())

	rr = app.postForm("/create/regenerate", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, int32(2), app.calls.Load())

	rr = app.postForm("/create/reset", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	rr = app.do(http.MethodGet, "/create", nil, "")
	assert.Contains(t, rr.Body.String(), "Personal Info")
	assert.NotContains(t, rr.Body.String(), "Embrace Your Vision")
}

func TestCreate_FailedGenerationReturnsToForm(t *testing.T) {
	app := newTestApp(t)
	app.fail.Store(true)
	app.completeWizard(t)

	rr := app.do(http.MethodGet, "/create", nil, "")
	body := rr.Body.String()
	assert.Contains(t, body, "Goals &amp; Vision")
	assert.Contains(t, body, "model offline")

	rr = app.postForm("/create/save", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	records, err := app.history.List(t.Context(), app.visitor)
	require.NoError(t, err)
	assert.Empty(t, records)

	rr = app.do(http.MethodGet, "/create/download", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHistory_EmptySearchSelectDelete(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(http.MethodGet, "/history", nil, "")
	assert.Contains(t, rr.Body.String(), "No manifestations yet")

	ctx := t.Context()
	calm, err := app.history.Append(ctx, app.visitor, manifestation.SaveManifestationRequest{
		Content:  "I am calm and CENTERED.",
		FormData: &manifestation.FormData{LifeGoals: "Teach children to read"},
	})
	require.NoError(t, err)
	bold, err := app.history.Append(ctx, app.visitor, manifestation.SaveManifestationRequest{
		Content:  "I am bold.",
		FormData: &manifestation.FormData{LifeGoals: "Sail around the world"},
	})
	require.NoError(t, err)

	rr = app.do(http.MethodGet, "/history?q=centered", nil, "")
	body := rr.Body.String()
	assert.Contains(t, body, "I am calm and CENTERED....")
	assert.NotContains(t, body, "I am bold....")

	rr = app.do(http.MethodGet, "/history?q=SAIL", nil, "")
	assert.Contains(t, rr.Body.String(), "Sail around the...")

	selected := strconvID(calm.ID)
	rr = app.do(http.MethodGet, "/history?selected="+selected, nil, "")
	assert.Contains(t, rr.Body.String(), `<p class="full">I am calm and CENTERED.</p>`)

	rr = app.postForm("/history/"+strconvID(bold.ID)+"/delete", url.Values{"selected": {selected}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/history?selected="+selected, rr.Header().Get("Location"), "deleting another record keeps the selection")

	rr = app.postForm("/history/"+selected+"/delete", url.Values{"selected": {selected}, "q": {"calm"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/history?q=calm", rr.Header().Get("Location"), "deleting the selected record clears the selection")

	records, err := app.history.List(ctx, app.visitor)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistory_DownloadAndAudio(t *testing.T) {
	app := newTestApp(t)
	audio := "/static/audio/voice.mp3"
	rec, err := app.history.Append(t.Context(), app.visitor, manifestation.SaveManifestationRequest{Content: "I can.", AudioPath: &audio})
	require.NoError(t, err)

	rr := app.do(http.MethodGet, "/history/"+strconvID(rec.ID)+"/download", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "I can.", rr.Body.String())

	rr = app.do(http.MethodGet, "/history/"+strconvID(rec.ID)+"/audio", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = app.do(http.MethodGet, "/history/999/download", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_Generate(t *testing.T) {
	app := newTestApp(t)

	form := manifestation.FormData{
		Name: "Asha", BirthDate: "1994-03-12", Strengths: "Patience",
		NextYearGoals: "Run", LifeGoals: "Teach", ManifestationWish: "joy",
	}
	raw, _ := json.Marshal(form)

	rr := app.do(http.MethodPost, "/api/v1/manifestations/generate", bytes.NewReader(raw), "application/json")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp manifestation.ManifestationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.ManifestationText, "I attract joy.")

	app.fail.Store(true)
	rr = app.do(http.MethodPost, "/api/v1/manifestations/generate", bytes.NewReader(raw), "application/json")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"model offline"}`, rr.Body.String())

	form.Name = "A"
	raw, _ = json.Marshal(form)
	rr = app.do(http.MethodPost, "/api/v1/manifestations/generate", bytes.NewReader(raw), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"fields":["name"]`)
}

func TestAPI_HistoryCRUD(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(http.MethodPost, "/api/v1/manifestations", strings.NewReader(`{"content":"I will thrive.","formData":{"lifeGoals":"Write a novel"}}`), "application/json")
	require.Equal(t, http.StatusCreated, rr.Code)

	var saved manifestation.SavedManifestation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	assert.NotZero(t, saved.ID)

	rr = app.do(http.MethodPost, "/api/v1/manifestations", strings.NewReader(`{"content":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = app.do(http.MethodGet, "/api/v1/manifestations?q=NOVEL", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []manifestation.SavedManifestation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rr = app.do(http.MethodGet, "/api/v1/manifestations/"+strconvID(saved.ID), nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = app.do(http.MethodDelete, "/api/v1/manifestations/"+strconvID(saved.ID), nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = app.do(http.MethodDelete, "/api/v1/manifestations/"+strconvID(saved.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = app.do(http.MethodGet, "/api/v1/manifestations/"+strconvID(saved.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_WizardSteps(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(http.MethodGet, "/api/v1/wizard/steps", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var steps []manifestation.Step
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &steps))
	assert.Len(t, steps, manifestation.TotalSteps)
	assert.Equal(t, "Goals & Vision", steps[3].Title)
}

func strconvID(id int64) string {
	return strconv.FormatInt(id, 10)
}
