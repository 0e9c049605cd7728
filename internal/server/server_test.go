package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
	"github.com/rschaeff/archaea-vis/pkg/curation"
)

func setupServer(t *testing.T) (*gorm.DB, http.Handler) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	srv := New(db, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, srv.Migrate())
	return db, srv.MountRoutes()
}

func TestHealthz(t *testing.T) {
	_, r := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouteAssembly(t *testing.T) {
	db, r := setupServer(t)

	require.NoError(t, db.Create(&archaea.Organism{GenomeID: "g1", OrganismName: "Loki sp.", Phylum: "Asgard"}).Error)
	require.NoError(t, db.Create(&archaea.Protein{
		ProteinID: "P1", GenomeID: "g1", Length: 100, Source: "predicted", HasStructure: true,
	}).Error)
	require.NoError(t, db.Create(&archaea.Tier1Member{ClusterID: "T1C1", ProteinID: "P1"}).Error)
	require.NoError(t, db.Create(&curation.Candidate{
		ProteinID:       "P1",
		NoveltyCategory: curation.NoveltyDark,
		CurationStatus:  curation.StatusPending,
	}).Error)

	// Every mounted subtree answers through the one assembled router.
	paths := []string{
		"/api/v1/overview",
		"/api/v1/proteins",
		"/api/v1/proteins/P1",
		"/api/v1/proteins/P1/domains",
		"/api/v1/domains/orphans",
		"/api/v1/proteins/P1/hits",
		"/api/v1/organisms",
		"/api/v1/organisms/g1",
		"/api/v1/clusters/structural",
		"/api/v1/clusters/tier1",
		"/api/v1/clusters/tier1/T1C1",
		"/api/v1/curation/queue",
		"/api/v1/curation/stats",
		"/api/v1/curation/P1/decisions",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}
}

func TestDecisionThroughAssembledRouter(t *testing.T) {
	db, r := setupServer(t)

	require.NoError(t, db.Create(&archaea.Organism{GenomeID: "g1", OrganismName: "Loki sp.", Phylum: "Asgard"}).Error)
	require.NoError(t, db.Create(&archaea.Protein{
		ProteinID: "P1", GenomeID: "g1", Length: 100, Source: "predicted", HasStructure: true,
	}).Error)
	require.NoError(t, db.Create(&curation.Candidate{
		ProteinID:       "P1",
		NoveltyCategory: curation.NoveltyDark,
		CurationStatus:  curation.StatusPending,
	}).Error)

	body := `{"curator":"alice","decision_type":"approve"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/curation/P1/decision", strings.NewReader(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		NewStatus string `json:"new_status"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "classified", resp.NewStatus)

	// The admin route lives outside the curator surface.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/curation/P1/reanalysis",
		strings.NewReader(`{"actor":"admin","reason":"recheck"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ARCHAEA_LISTEN_ADDR", ":9999")
	t.Setenv("ARCHAEA_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ARCHAEA_SLOW_QUERY_SECONDS", "5")

	cfg := ConfigFromEnv()
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "5s", cfg.SlowQueryThreshold.String())
}
