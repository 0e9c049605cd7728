package novelty

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
)

func setupClusterRouter(t *testing.T) (*gorm.DB, *chi.Mux) {
	t.Helper()
	db := setupTestDB(t)
	store := NewStore(db)

	r := chi.NewRouter()
	r.Get("/overview", OverviewHandler(store))
	r.Get("/clusters/{tier}", ListClustersHandler(store))
	r.Get("/clusters/{tier}/{clusterID}", GetClusterHandler(store))
	r.Get("/proteins/{proteinID}/hits", ProteinHitsHandler(store))
	r.Get("/domains/{proteinID}/{domainNum}/hits", DomainHitsHandler(store))
	return db, r
}

func TestListClustersHandler(t *testing.T) {
	db, r := setupClusterRouter(t)

	seedOrganism(t, db, "g1", "Asgard")
	seedProtein(t, db, "P1", "g1", floatPtr(80))
	seedProtein(t, db, "P2", "g1", floatPtr(90))
	seedTier1(t, db, "T1C1", "P1")
	seedTier1(t, db, "T1C1", "P2")

	req := httptest.NewRequest(http.MethodGet, "/clusters/tier1", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []ClusterSummary `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "T1C1", resp.Items[0].ClusterID)
	assert.Equal(t, 2, resp.Items[0].ClusterSize)
}

func TestListClustersHandler_BadTier(t *testing.T) {
	_, r := setupClusterRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/clusters/tier9", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetClusterHandler_NotFound(t *testing.T) {
	_, r := setupClusterRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/clusters/tier2/missing", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainHitsHandler_BadDomainNum(t *testing.T) {
	_, r := setupClusterRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/domains/P1/zero/hits", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProteinHitsHandler(t *testing.T) {
	db, r := setupClusterRouter(t)

	seedOrganism(t, db, "g1", "Asgard")
	seedProtein(t, db, "T1P", "g1", floatPtr(70))
	seedProtein(t, db, "T2P", "g1", floatPtr(75))
	seedTier1(t, db, "T1C1", "T1P")
	seedTier2Domain(t, db, "T2C1", "T2P", 1, floatPtr(0.3), nil)
	require.NoError(t, db.Create(&archaea.CrossTierHit{
		T1ProteinID: "T1P", T2ProteinID: "T2P", T2DomainNum: 1, Score: 80,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/proteins/T1P/hits", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ProteinID string        `json:"protein_id"`
		Hits      []EnrichedHit `json:"hits"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "T1P", resp.ProteinID)
	require.Len(t, resp.Hits, 1)
	require.NotNil(t, resp.Hits[0].ClusterID)
	assert.Equal(t, "T2C1", *resp.Hits[0].ClusterID)
}

func TestOverviewHandler(t *testing.T) {
	db, r := setupClusterRouter(t)

	seedOrganism(t, db, "g1", "Asgard")
	seedProtein(t, db, "P1", "g1", floatPtr(70))
	seedTier1(t, db, "T1C1", "P1")

	req := httptest.NewRequest(http.MethodGet, "/overview", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats OverviewStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Tier1Clusters)
	assert.Equal(t, 1, stats.Tier1Proteins)
}
