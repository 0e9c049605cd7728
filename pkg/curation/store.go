package curation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

var (
	// ErrNotFound is returned when no candidate row exists for a protein.
	ErrNotFound = errors.New("candidate not found")
	// ErrConflict is returned when a concurrent decision changed the
	// candidate's status between this transaction's read and its write.
	ErrConflict = errors.New("candidate modified concurrently")
)

// Store provides the curation workflow operations.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the curation tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Candidate{}); err != nil {
		return fmt.Errorf("auto-migrate curation_candidates: %w", err)
	}
	if err := s.db.AutoMigrate(&Decision{}); err != nil {
		return fmt.Errorf("auto-migrate curation_decisions: %w", err)
	}
	return nil
}

// SubmitDecision applies one curator decision atomically: it reads the
// candidate, appends exactly one audit row (for every decision type,
// including skip), mutates the candidate unless the decision is a skip, and
// picks the next pending protein. Any failure rolls the whole transaction
// back; an audit row without its mutation, or the reverse, is never
// observable.
//
// The candidate update is guarded by the status read at step one; if a
// concurrent decision won the race, the transaction aborts with
// ErrConflict instead of recording a stale previous_status.
func (s *Store) SubmitDecision(proteinID string, req DecisionRequest) (*DecisionResult, error) {
	if proteinID == "" {
		return nil, fmt.Errorf("protein id is required: %w", ErrInvalidDecision)
	}
	if req.Curator == "" {
		return nil, fmt.Errorf("curator is required: %w", ErrInvalidDecision)
	}
	newStatus, err := ResolveTransition(req.DecisionType)
	if err != nil {
		return nil, err
	}

	result := &DecisionResult{ProteinID: proteinID, NewStatus: newStatus}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var candidate Candidate
		err := tx.Where("protein_id = ?", proteinID).First(&candidate).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %q: %w", proteinID, ErrNotFound)
			}
			return fmt.Errorf("read candidate: %w", err)
		}

		now := time.Now().UTC()
		forceNovel := req.DecisionType == DecisionFlagNovel

		decision := &Decision{
			ID:             uuid.New().String(),
			ProteinID:      proteinID,
			Curator:        req.Curator,
			DecisionType:   req.DecisionType,
			PreviousStatus: candidate.CurationStatus,
			NewStatus:      newStatus,
			EcodXGroup:     req.EcodXGroup.Value,
			EcodHGroup:     req.EcodHGroup.Value,
			EcodTGroup:     req.EcodTGroup.Value,
			EcodFGroup:     req.EcodFGroup.Value,
			IsNovelFold:    forceNovel || (req.IsNovelFold != nil && *req.IsNovelFold),
			IsNewTopology:  req.IsNewTopology != nil && *req.IsNewTopology,
			Confidence:     req.Confidence.Value,
			Notes:          req.Notes,
			CreatedAt:      now,
		}
		if err := tx.Create(decision).Error; err != nil {
			return fmt.Errorf("append decision: %w", err)
		}

		if req.DecisionType != DecisionSkip {
			updates := map[string]any{
				"curation_status": newStatus,
				"reviewed_at":     now,
				"updated_at":      now,
			}
			if newStatus == StatusClassified {
				updates["classified_at"] = now
			}
			if forceNovel {
				updates["is_novel_fold"] = true
			} else if req.IsNovelFold != nil {
				updates["is_novel_fold"] = *req.IsNovelFold
			}
			if req.IsNewTopology != nil {
				updates["is_new_topology"] = *req.IsNewTopology
			}
			// A present field overwrites, including an explicit null; an
			// absent field leaves the stored value untouched.
			if req.EcodXGroup.Present {
				updates["ecod_x_group"] = req.EcodXGroup.Value
			}
			if req.EcodHGroup.Present {
				updates["ecod_h_group"] = req.EcodHGroup.Value
			}
			if req.EcodTGroup.Present {
				updates["ecod_t_group"] = req.EcodTGroup.Value
			}
			if req.EcodFGroup.Present {
				updates["ecod_f_group"] = req.EcodFGroup.Value
			}
			if req.Confidence.Present {
				updates["confidence"] = req.Confidence.Value
			}
			if req.Notes != "" {
				updates["notes"] = req.Notes
			}

			res := tx.Model(&Candidate{}).
				Where("protein_id = ? AND curation_status = ?", proteinID, candidate.CurationStatus).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("update candidate: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("candidate %q: %w", proteinID, ErrConflict)
			}
		}

		next, err := nextPending(tx, proteinID)
		if err != nil {
			return err
		}
		result.NextProteinID = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextPending picks one pending candidate with a structure, excluding the
// protein just processed, lowest priority_rank first with nulls last. A
// best-effort advisory pick: nothing is locked or leased.
func nextPending(tx *gorm.DB, excludeProteinID string) (*string, error) {
	var row struct{ ProteinID string }
	err := tx.Table("curation_candidates AS c").
		Select("c.protein_id").
		Joins("JOIN proteins p ON p.protein_id = c.protein_id").
		Where("c.curation_status = ? AND p.has_structure = ? AND c.protein_id <> ?",
			StatusPending, true, excludeProteinID).
		Order("c.priority_rank IS NULL, c.priority_rank ASC, c.protein_id ASC").
		Limit(1).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("pick next candidate: %w", err)
	}
	return &row.ProteinID, nil
}

// MarkNeedsReanalysis is the out-of-band administrative action that moves a
// candidate to needs_reanalysis. It is not reachable through the decision
// endpoint, but it still writes an audit row in the same transaction.
func (s *Store) MarkNeedsReanalysis(proteinID, actor, reason string) error {
	if actor == "" {
		return fmt.Errorf("actor is required: %w", ErrInvalidDecision)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var candidate Candidate
		err := tx.Where("protein_id = ?", proteinID).First(&candidate).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("candidate %q: %w", proteinID, ErrNotFound)
			}
			return fmt.Errorf("read candidate: %w", err)
		}

		now := time.Now().UTC()
		decision := &Decision{
			ID:             uuid.New().String(),
			ProteinID:      proteinID,
			Curator:        actor,
			DecisionType:   decisionReanalysis,
			PreviousStatus: candidate.CurationStatus,
			NewStatus:      StatusNeedsReanalysis,
			Notes:          reason,
			CreatedAt:      now,
		}
		if err := tx.Create(decision).Error; err != nil {
			return fmt.Errorf("append decision: %w", err)
		}

		res := tx.Model(&Candidate{}).
			Where("protein_id = ? AND curation_status = ?", proteinID, candidate.CurationStatus).
			Updates(map[string]any{
				"curation_status": StatusNeedsReanalysis,
				"reviewed_at":     now,
				"updated_at":      now,
			})
		if res.Error != nil {
			return fmt.Errorf("update candidate: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("candidate %q: %w", proteinID, ErrConflict)
		}
		return nil
	})
}

// QueueFilter defines filters for the review queue. Status defaults to
// pending; the explicit value "all" removes the status filter.
type QueueFilter struct {
	Novelty      string
	Priority     string
	Status       string
	HasStructure *bool
	Taxonomy     string
}

// ListQueue returns one page of the review queue with the unpaginated
// total. Default ordering is priority_category then priority_rank, both
// ascending with nulls last: the coarse bucket is assigned by an offline
// heuristic whose ranks are not comparable across buckets.
func (s *Store) ListQueue(filter QueueFilter, p pagination.Params) ([]QueueItem, int, error) {
	p = p.Normalize()

	// Build the filtered query fresh for count and page; reusing one GORM
	// chain across Count and Scan carries the count select along.
	build := func() *gorm.DB {
		q := s.db.Table("curation_candidates AS c").
			Joins("JOIN proteins p ON p.protein_id = c.protein_id").
			Joins("JOIN organisms o ON o.genome_id = p.genome_id")

		status := filter.Status
		if status == "" {
			status = string(StatusPending)
		}
		if status != "all" {
			q = q.Where("c.curation_status = ?", status)
		}
		if filter.Novelty != "" {
			q = q.Where("c.novelty_category = ?", filter.Novelty)
		}
		if filter.Priority != "" {
			q = q.Where("c.priority_category = ?", filter.Priority)
		}
		if filter.HasStructure != nil {
			q = q.Where("p.has_structure = ?", *filter.HasStructure)
		}
		if filter.Taxonomy != "" {
			q = q.Where("o.class = ?", filter.Taxonomy)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count queue: %w", err)
	}

	var items []QueueItem
	err := build().Select(
		"c.protein_id, c.novelty_category, c.priority_category, c.priority_rank, " +
			"c.curation_status, c.is_novel_fold, " +
			"p.length, p.source, p.has_structure, o.phylum, o.class").
		Order("c.priority_category IS NULL, c.priority_category ASC, " +
			"c.priority_rank IS NULL, c.priority_rank ASC, c.protein_id ASC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Scan(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list queue: %w", err)
	}
	return items, int(total), nil
}

// ListDecisions returns one page of the audit trail for a protein, newest
// first, with the unpaginated total.
func (s *Store) ListDecisions(proteinID string, p pagination.Params) ([]Decision, int, error) {
	p = p.Normalize()

	var total int64
	if err := s.db.Model(&Decision{}).Where("protein_id = ?", proteinID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count decisions: %w", err)
	}

	var decisions []Decision
	err := s.db.Where("protein_id = ?", proteinID).
		Order("created_at DESC, id ASC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&decisions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list decisions: %w", err)
	}
	return decisions, int(total), nil
}

type statusCount struct {
	CurationStatus  Status
	NoveltyCategory NoveltyCategory
	N               int
}

// Stats returns candidate counts per status and per novelty category.
func (s *Store) Stats() (*QueueStats, error) {
	stats := &QueueStats{
		ByStatus:  map[Status]int{},
		ByNovelty: map[NoveltyCategory]int{},
	}

	var byStatus []statusCount
	err := s.db.Model(&Candidate{}).
		Select("curation_status, COUNT(*) AS n").
		Group("curation_status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	for _, c := range byStatus {
		stats.ByStatus[c.CurationStatus] = c.N
		stats.Total += c.N
	}

	var byNovelty []statusCount
	err = s.db.Model(&Candidate{}).
		Select("novelty_category, COUNT(*) AS n").
		Group("novelty_category").
		Scan(&byNovelty).Error
	if err != nil {
		return nil, fmt.Errorf("count by novelty: %w", err)
	}
	for _, c := range byNovelty {
		stats.ByNovelty[c.NoveltyCategory] = c.N
	}

	return stats, nil
}
