package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the pages and the /api/v1 JSON API on r.
func RegisterRoutes(r *mux.Router, pages *PageHandler, create *CreateHandler, history *HistoryHandler, api *ManifestationHandler) {
	r.HandleFunc("/", pages.Landing).Methods(http.MethodGet)

	r.HandleFunc("/create", create.Page).Methods(http.MethodGet)
	r.HandleFunc("/create/step", create.Step).Methods(http.MethodPost)
	r.HandleFunc("/create/regenerate", create.Regenerate).Methods(http.MethodPost)
	r.HandleFunc("/create/save", create.Save).Methods(http.MethodPost)
	r.HandleFunc("/create/reset", create.Reset).Methods(http.MethodPost)
	r.HandleFunc("/create/download", create.Download).Methods(http.MethodGet)
	r.HandleFunc("/create/audio", create.Audio).Methods(http.MethodGet)

	r.HandleFunc("/history", history.Page).Methods(http.MethodGet)
	r.HandleFunc("/history/{id:[0-9]+}/delete", history.Delete).Methods(http.MethodPost)
	r.HandleFunc("/history/{id:[0-9]+}/download", history.Download).Methods(http.MethodGet)
	r.HandleFunc("/history/{id:[0-9]+}/audio", history.Audio).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/wizard/steps", api.GetWizardSteps).Methods(http.MethodGet)
	v1.HandleFunc("/manifestations/generate", api.Generate).Methods(http.MethodPost)
	v1.HandleFunc("/manifestations", api.List).Methods(http.MethodGet)
	v1.HandleFunc("/manifestations", api.Save).Methods(http.MethodPost)
	v1.HandleFunc("/manifestations/{id:[0-9]+}", api.Get).Methods(http.MethodGet)
	v1.HandleFunc("/manifestations/{id:[0-9]+}", api.Delete).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(pages.NotFound)
}
