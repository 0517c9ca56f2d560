package helpers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"envisionWeb/handlers"
	"envisionWeb/internal/render"
	"envisionWeb/internal/storage"
	"envisionWeb/middleware"
	"envisionWeb/services"
)

// SetupTestStore opens a SQLite history store in a temp dir.
func SetupTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := storage.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// GenerationAPI is a stand-in for the remote generation service.
type GenerationAPI struct {
	*httptest.Server
	Calls   atomic.Int32
	Failing atomic.Bool
}

// MockGenerationAPI answers /generate-manifestation with a passage built from the request.
func MockGenerationAPI(t *testing.T) *GenerationAPI {
	t.Helper()

	api := &GenerationAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-manifestation" {
			http.NotFound(w, r)
			return
		}
		n := api.Calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		if api.Failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail": "Generation service is warming up"}`))
			return
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"manifestation_text": "Passage " + string(rune('0'+n)) + " for " + body["preferred_name"].(string) + ". I am ready. I choose growth.",
			"audio_path":         nil,
			"qdrant_point_id":    "pt_1",
			"message":            "Manifestation generated successfully",
		})
	}))
	t.Cleanup(api.Close)
	return api
}

// NewTestServer wires the full router against store and the mock API.
func NewTestServer(t *testing.T, store storage.BlobStore, api *GenerationAPI) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	client, err := services.NewGenerationClient(api.URL, 5*time.Second, logger)
	if err != nil {
		t.Fatalf("Failed to create generation client: %v", err)
	}
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}

	history := services.NewHistoryService(store, logger)
	create := services.NewCreateService(client, history, time.Hour, logger)

	r := mux.NewRouter()
	r.Use(middleware.VisitorMiddleware(false))
	handlers.RegisterRoutes(r,
		handlers.NewPageHandler(renderer, logger),
		handlers.NewCreateHandler(create, client, renderer, logger),
		handlers.NewHistoryHandler(history, client, renderer, logger),
		handlers.NewManifestationHandler(client, history, logger),
	)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

// NewBrowser returns a client that keeps cookies, like a browser tab.
func NewBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}
