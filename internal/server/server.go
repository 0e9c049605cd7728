// Package server assembles the HTTP API: stores, middleware, and routes.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
	"github.com/rschaeff/archaea-vis/pkg/curation"
	"github.com/rschaeff/archaea-vis/pkg/files"
	"github.com/rschaeff/archaea-vis/pkg/novelty"
)

// Server owns the stores and the HTTP router. It is constructed once at
// startup with an injected database handle; nothing here reaches for
// ambient global state.
type Server struct {
	cfg    Config
	logger *slog.Logger

	archaeaStore  *archaea.Store
	noveltyStore  *novelty.Store
	curationStore *curation.Store
	resolver      *files.Resolver
}

// New creates a Server over the given database.
func New(db *gorm.DB, cfg Config, logger *slog.Logger) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		archaeaStore:  archaea.NewStore(db),
		noveltyStore:  novelty.NewStore(db),
		curationStore: curation.NewStore(db),
		resolver:      files.NewResolver(cfg.DataRoot),
	}
}

// Migrate creates or updates all tables.
func (s *Server) Migrate() error {
	if err := s.archaeaStore.AutoMigrate(); err != nil {
		return err
	}
	return s.curationStore.AutoMigrate()
}

// MountRoutes builds the chi router with all API routes.
func (s *Server) MountRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.slowRequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/overview", novelty.OverviewHandler(s.noveltyStore))

		r.Route("/proteins", func(r chi.Router) {
			r.Get("/", archaea.ListProteinsHandler(s.archaeaStore))
			r.Get("/{proteinID}", archaea.GetProteinHandler(s.archaeaStore))
			r.Get("/{proteinID}/domains", archaea.ListDomainsHandler(s.archaeaStore))
			r.Get("/{proteinID}/hits", novelty.ProteinHitsHandler(s.noveltyStore))
			r.Get("/{proteinID}/structure", files.ServeStructureHandler(s.archaeaStore, s.resolver))
			r.Get("/{proteinID}/pae", files.ServePaeHandler(s.archaeaStore, s.resolver))
		})

		r.Route("/organisms", func(r chi.Router) {
			r.Get("/", archaea.ListOrganismsHandler(s.archaeaStore))
			r.Get("/{genomeID}", archaea.GetOrganismHandler(s.archaeaStore))
		})

		r.Route("/clusters", func(r chi.Router) {
			r.Get("/structural", archaea.ListStructuralClustersHandler(s.archaeaStore))
			r.Get("/structural/{clusterID}", archaea.GetStructuralClusterHandler(s.archaeaStore))
			r.Get("/{tier}", novelty.ListClustersHandler(s.noveltyStore))
			r.Get("/{tier}/{clusterID}", novelty.GetClusterHandler(s.noveltyStore))
		})

		r.Route("/domains", func(r chi.Router) {
			r.Get("/orphans", archaea.ListOrphanDomainsHandler(s.archaeaStore))
			r.Get("/{proteinID}/{domainNum}/hits", novelty.DomainHitsHandler(s.noveltyStore))
		})

		r.Mount("/curation", curation.NewRouter(s.curationStore))
		r.Mount("/admin/curation", curation.NewAdminRouter(s.curationStore))
	})

	return r
}

// slowRequestLogger logs requests exceeding the slow threshold. Reads are
// never cancelled for being slow; dashboard correctness does not depend on
// bounded latency.
func (s *Server) slowRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if elapsed := time.Since(start); elapsed > s.cfg.SlowQueryThreshold {
			s.logger.Warn("slow request",
				"method", r.Method,
				"path", r.URL.Path,
				"elapsed", elapsed,
			)
		}
	})
}
