package curation

import "time"

// Candidate is the GORM model for a protein eligible for curation. Exactly
// one row per protein, created by the upstream batch classification; only
// curation_status and the classification fields mutate, and only through
// SubmitDecision or the administrative reanalysis action.
type Candidate struct {
	ProteinID        string          `gorm:"primaryKey;column:protein_id;type:varchar(64)" json:"protein_id"`
	NoveltyCategory  NoveltyCategory `gorm:"column:novelty_category;index:idx_cand_novelty" json:"novelty_category"`
	PriorityCategory *string         `gorm:"column:priority_category;index:idx_cand_priority,priority:1" json:"priority_category"`
	PriorityRank     *int            `gorm:"column:priority_rank;index:idx_cand_priority,priority:2" json:"priority_rank"`
	CurationStatus   Status          `gorm:"column:curation_status;index:idx_cand_status;not null;default:pending" json:"curation_status"`
	IsNovelFold      bool            `gorm:"column:is_novel_fold" json:"is_novel_fold"`
	IsNewTopology    bool            `gorm:"column:is_new_topology" json:"is_new_topology"`
	EcodXGroup       *string         `gorm:"column:ecod_x_group" json:"ecod_x_group"`
	EcodHGroup       *string         `gorm:"column:ecod_h_group" json:"ecod_h_group"`
	EcodTGroup       *string         `gorm:"column:ecod_t_group" json:"ecod_t_group"`
	EcodFGroup       *string         `gorm:"column:ecod_f_group" json:"ecod_f_group"`
	Confidence       *string         `gorm:"column:confidence" json:"confidence"`
	Notes            string          `gorm:"column:notes" json:"notes"`
	ClassifiedAt     *time.Time      `gorm:"column:classified_at" json:"classified_at"`
	ReviewedAt       *time.Time      `gorm:"column:reviewed_at" json:"reviewed_at"`
	CreatedAt        time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the GORM table name.
func (Candidate) TableName() string { return "curation_candidates" }

// Decision is the GORM model for one audit row. The table is append-only:
// rows are never updated or deleted, and every committed status transition
// has exactly one matching row written in the same transaction.
type Decision struct {
	ID             string       `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ProteinID      string       `gorm:"column:protein_id;index:idx_decision_protein;not null" json:"protein_id"`
	Curator        string       `gorm:"column:curator;not null" json:"curator"`
	DecisionType   DecisionType `gorm:"column:decision_type;not null" json:"decision_type"`
	PreviousStatus Status       `gorm:"column:previous_status;not null" json:"previous_status"`
	NewStatus      Status       `gorm:"column:new_status;not null" json:"new_status"`
	EcodXGroup     *string      `gorm:"column:ecod_x_group" json:"ecod_x_group"`
	EcodHGroup     *string      `gorm:"column:ecod_h_group" json:"ecod_h_group"`
	EcodTGroup     *string      `gorm:"column:ecod_t_group" json:"ecod_t_group"`
	EcodFGroup     *string      `gorm:"column:ecod_f_group" json:"ecod_f_group"`
	IsNovelFold    bool         `gorm:"column:is_novel_fold" json:"is_novel_fold"`
	IsNewTopology  bool         `gorm:"column:is_new_topology" json:"is_new_topology"`
	Confidence     *string      `gorm:"column:confidence" json:"confidence"`
	Notes          string       `gorm:"column:notes" json:"notes"`
	CreatedAt      time.Time    `gorm:"column:created_at;index:idx_decision_created;not null" json:"created_at"`
}

// TableName returns the GORM table name.
func (Decision) TableName() string { return "curation_decisions" }

// DecisionRequest is the decision-submit request body. The ECOD fields use
// Nullable so the store can tell "not sent" (keep stored value) apart from
// "sent as null" (clear stored value).
type DecisionRequest struct {
	Curator       string           `json:"curator"`
	DecisionType  DecisionType     `json:"decision_type"`
	EcodXGroup    Nullable[string] `json:"ecod_x_group"`
	EcodHGroup    Nullable[string] `json:"ecod_h_group"`
	EcodTGroup    Nullable[string] `json:"ecod_t_group"`
	EcodFGroup    Nullable[string] `json:"ecod_f_group"`
	IsNovelFold   *bool            `json:"is_novel_fold"`
	IsNewTopology *bool            `json:"is_new_topology"`
	Confidence    Nullable[string] `json:"confidence"`
	Notes         string           `json:"notes"`
}

// DecisionResult is the outcome of a submitted decision. NextProteinID is a
// best-effort single pick, never a reservation: concurrent curators may be
// handed the same protein, and callers can always re-fetch the queue.
type DecisionResult struct {
	ProteinID     string  `json:"protein_id"`
	NewStatus     Status  `json:"new_status"`
	NextProteinID *string `json:"next_protein,omitempty"`
}

// QueueItem is one row of the review queue: the candidate joined with the
// protein and organism columns the queue view filters and displays.
type QueueItem struct {
	ProteinID        string          `json:"protein_id"`
	NoveltyCategory  NoveltyCategory `json:"novelty_category"`
	PriorityCategory *string         `json:"priority_category"`
	PriorityRank     *int            `json:"priority_rank"`
	CurationStatus   Status          `json:"curation_status"`
	IsNovelFold      bool            `json:"is_novel_fold"`
	Length           int             `json:"length"`
	Source           string          `json:"source"`
	HasStructure     bool            `json:"has_structure"`
	Phylum           string          `json:"phylum"`
	Class            string          `json:"class"`
}

// QueueStats summarizes curation progress for the dashboard.
type QueueStats struct {
	Total     int                     `json:"total"`
	ByStatus  map[Status]int          `json:"by_status"`
	ByNovelty map[NoveltyCategory]int `json:"by_novelty"`
}
