package novelty

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

// ListClustersHandler handles GET /clusters/{tier}.
// Query params: minSize, crossPhylum, phylum, plus pagination params.
func ListClustersHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier, ok := parseTier(chi.URLParam(r, "tier"))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tier %q (expected tier1 or tier2)", chi.URLParam(r, "tier")))
			return
		}

		q := r.URL.Query()
		filter := ClusterFilter{Phylum: q.Get("phylum")}
		if v := q.Get("minSize"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.MinSize = n
			}
		}
		if v := q.Get("crossPhylum"); v != "" {
			b := v == "true" || v == "1"
			filter.CrossPhylum = &b
		}

		params := pagination.Parse(r)
		clusters, total, err := store.ListClusters(tier, filter, params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list clusters: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, pagination.Result{
			Items:    clusters,
			Total:    total,
			Page:     params.Normalize().Page,
			PageSize: params.Normalize().PageSize,
		})
	}
}

// GetClusterHandler handles GET /clusters/{tier}/{clusterID}.
func GetClusterHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier, ok := parseTier(chi.URLParam(r, "tier"))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tier %q (expected tier1 or tier2)", chi.URLParam(r, "tier")))
			return
		}
		clusterID := chi.URLParam(r, "clusterID")

		var summary *ClusterSummary
		var err error
		if tier == Tier1 {
			summary, err = store.SummarizeTier1Cluster(clusterID)
		} else {
			summary, err = store.SummarizeTier2Cluster(clusterID)
		}
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("cluster %q not found", clusterID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to summarize cluster: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// ProteinHitsHandler handles GET /proteins/{proteinID}/hits: cross-tier
// hits where the protein is the tier-1 side.
func ProteinHitsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		hits, err := store.CrossTierHitsForProtein(proteinID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list hits: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"protein_id": proteinID,
			"hits":       hits,
		})
	}
}

// DomainHitsHandler handles GET /domains/{proteinID}/{domainNum}/hits:
// cross-tier hits where the domain is the tier-2 side.
func DomainHitsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")
		domainNum, err := strconv.Atoi(chi.URLParam(r, "domainNum"))
		if err != nil || domainNum < 1 {
			writeError(w, http.StatusBadRequest, "domain number must be a positive integer")
			return
		}

		hits, err := store.CrossTierHitsForDomain(proteinID, domainNum)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list hits: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"protein_id": proteinID,
			"domain_num": domainNum,
			"hits":       hits,
		})
	}
}

// OverviewHandler handles GET /overview.
func OverviewHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Overview()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute overview: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func parseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case Tier1, Tier2:
		return Tier(s), true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
