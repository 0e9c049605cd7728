package curation

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the curator-facing workflow routes.
// The caller mounts it under the API prefix.
func NewRouter(store *Store) chi.Router {
	r := chi.NewRouter()

	r.Get("/queue", ListQueueHandler(store))
	r.Get("/stats", StatsHandler(store))
	r.Get("/{proteinID}/decisions", ListDecisionsHandler(store))
	r.Post("/{proteinID}/decision", SubmitDecisionHandler(store))

	return r
}

// NewAdminRouter creates a chi router with the administrative routes that
// bypass the decision transition table.
func NewAdminRouter(store *Store) chi.Router {
	r := chi.NewRouter()

	r.Post("/{proteinID}/reanalysis", MarkReanalysisHandler(store))

	return r
}
