package curation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

// SubmitDecisionHandler handles POST /curation/{proteinID}/decision.
func SubmitDecisionHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		var req DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		result, err := store.SubmitDecision(proteinID, req)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, fmt.Sprintf("candidate %q not found", proteinID))
			case errors.Is(err, ErrInvalidDecision):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, ErrConflict):
				writeError(w, http.StatusConflict, fmt.Sprintf("candidate %q was modified concurrently, re-fetch and retry", proteinID))
			default:
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to submit decision: %v", err))
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"protein_id":   result.ProteinID,
			"new_status":   result.NewStatus,
			"next_protein": result.NextProteinID,
		})
	}
}

// ListQueueHandler handles GET /curation/queue.
// Query params: novelty, priority, status (default pending, "all" clears),
// hasStructure, taxonomy, plus pagination params.
func ListQueueHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := QueueFilter{
			Novelty:  q.Get("novelty"),
			Priority: q.Get("priority"),
			Status:   q.Get("status"),
			Taxonomy: q.Get("taxonomy"),
		}
		if v := q.Get("hasStructure"); v != "" {
			b := v == "true" || v == "1"
			filter.HasStructure = &b
		}

		params := pagination.Parse(r)
		items, total, err := store.ListQueue(filter, params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list queue: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, pagination.Result{
			Items:    items,
			Total:    total,
			Page:     params.Normalize().Page,
			PageSize: params.Normalize().PageSize,
		})
	}
}

// ListDecisionsHandler handles GET /curation/{proteinID}/decisions.
func ListDecisionsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		params := pagination.Parse(r)
		decisions, total, err := store.ListDecisions(proteinID, params)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list decisions: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, pagination.Result{
			Items:    decisions,
			Total:    total,
			Page:     params.Normalize().Page,
			PageSize: params.Normalize().PageSize,
		})
	}
}

// StatsHandler handles GET /curation/stats.
func StatsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute stats: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// reanalysisRequest is the admin reanalysis request body.
type reanalysisRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

// MarkReanalysisHandler handles POST /admin/curation/{proteinID}/reanalysis.
func MarkReanalysisHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proteinID := chi.URLParam(r, "proteinID")

		var req reanalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		err := store.MarkNeedsReanalysis(proteinID, req.Actor, req.Reason)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, fmt.Sprintf("candidate %q not found", proteinID))
			case errors.Is(err, ErrInvalidDecision):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, ErrConflict):
				writeError(w, http.StatusConflict, fmt.Sprintf("candidate %q was modified concurrently, re-fetch and retry", proteinID))
			default:
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to mark reanalysis: %v", err))
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"protein_id": proteinID,
			"new_status": StatusNeedsReanalysis,
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
