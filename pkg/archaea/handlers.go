package archaea

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rschaeff/archaea-vis/pkg/filterquery"
	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

// ListProteinsHandler handles GET /proteins.
// Query params: genome, source, hasStructure, minLength, maxLength, q,
// plus the standard pagination params.
func ListProteinsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ProteinFilter{
			GenomeID: q.Get("genome"),
			Source:   q.Get("source"),
			Query:    q.Get("q"),
		}
		if v := q.Get("hasStructure"); v != "" {
			b := v == "true" || v == "1"
			filter.HasStructure = &b
		}
		if v := q.Get("minLength"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.MinLength = n
			}
		}
		if v := q.Get("maxLength"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.MaxLength = n
			}
		}

		params := pagination.Parse(r)
		proteins, total, err := store.ListProteins(filter, params)
		if err != nil {
			// A bad filter expression is caller error; anything else,
			// including a database failure while a filter is present, is a
			// store failure and stays retryable.
			if errors.Is(err, filterquery.ErrInvalidFilter) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid filter: %v", err))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list proteins: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, pagination.Result{
			Items:    proteins,
			Total:    total,
			Page:     params.Normalize().Page,
			PageSize: params.Normalize().PageSize,
		})
	}
}

// GetProteinHandler handles GET /proteins/{proteinID}.
func GetProteinHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		detail, err := store.GetProtein(proteinID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("protein %q not found", proteinID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get protein: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// ListDomainsHandler handles GET /proteins/{proteinID}/domains.
func ListDomainsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		domains, err := store.ListDomains(proteinID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list domains: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"protein_id": proteinID,
			"domains":    domains,
		})
	}
}

// ListOrphanDomainsHandler handles GET /domains/orphans.
func ListOrphanDomainsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := pagination.Parse(r)
		domains, total, err := store.ListOrphanDomains(params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list orphan domains: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, pagination.Result{
			Items:    domains,
			Total:    total,
			Page:     params.Normalize().Page,
			PageSize: params.Normalize().PageSize,
		})
	}
}

// ListOrganismsHandler handles GET /organisms.
func ListOrganismsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := pagination.Parse(r)
		organisms, total, err := store.ListOrganisms(params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list organisms: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, pagination.Result{
			Items:    organisms,
			Total:    total,
			Page:     params.Normalize().Page,
			PageSize: params.Normalize().PageSize,
		})
	}
}

// GetOrganismHandler handles GET /organisms/{genomeID}.
func GetOrganismHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genomeID := chi.URLParam(r, "genomeID")

		organism, err := store.GetOrganism(genomeID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("organism %q not found", genomeID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get organism: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, organism)
	}
}

// ListStructuralClustersHandler handles GET /clusters/structural.
func ListStructuralClustersHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := pagination.Parse(r)
		clusters, total, err := store.ListStructuralClusters(params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list structural clusters: %v", err))
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

// GetStructuralClusterHandler handles GET /clusters/structural/{clusterID}.
func GetStructuralClusterHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clusterID := chi.URLParam(r, "clusterID")

		members, err := store.GetStructuralCluster(clusterID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("structural cluster %q not found", clusterID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get structural cluster: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"cluster_id": clusterID,
			"members":    members,
		})
	}
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
