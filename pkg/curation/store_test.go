package curation

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// The queue joins proteins and organisms, so those tables come along.
	require.NoError(t, db.AutoMigrate(&Candidate{}, &Decision{}, &archaea.Protein{}, &archaea.Organism{}))
	return db
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func nullableStr(v string) Nullable[string] {
	return Nullable[string]{Present: true, Value: &v}
}
func nullableNull() Nullable[string] {
	return Nullable[string]{Present: true}
}

func seedOrganism(t *testing.T, db *gorm.DB, genomeID, phylum, class string) {
	t.Helper()
	require.NoError(t, db.Create(&archaea.Organism{
		GenomeID:     genomeID,
		OrganismName: genomeID + " sp.",
		Phylum:       phylum,
		Class:        class,
	}).Error)
}

func seedProtein(t *testing.T, db *gorm.DB, proteinID, genomeID string, hasStructure bool) {
	t.Helper()
	require.NoError(t, db.Create(&archaea.Protein{
		ProteinID:    proteinID,
		GenomeID:     genomeID,
		Length:       200,
		Source:       "predicted",
		HasStructure: hasStructure,
	}).Error)
}

func seedCandidate(t *testing.T, db *gorm.DB, proteinID string, rank *int) {
	t.Helper()
	require.NoError(t, db.Create(&Candidate{
		ProteinID:        proteinID,
		NoveltyCategory:  NoveltyDark,
		PriorityCategory: strPtr("high"),
		PriorityRank:     rank,
		CurationStatus:   StatusPending,
	}).Error)
}

func TestResolveTransitionTotal(t *testing.T) {
	cases := map[DecisionType]Status{
		DecisionApprove:   StatusClassified,
		DecisionClassify:  StatusClassified,
		DecisionFlagNovel: StatusClassified,
		DecisionDefer:     StatusDeferred,
		DecisionReject:    StatusRejected,
		DecisionSkip:      StatusPending,
	}
	for decision, want := range cases {
		got, err := ResolveTransition(decision)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ResolveTransition("promote")
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestSubmitDecisionApprove(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedProtein(t, db, "P2", "g1", true)
	seedCandidate(t, db, "P1", intPtr(1))
	seedCandidate(t, db, "P2", intPtr(2))

	result, err := store.SubmitDecision("P1", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, "P1", result.ProteinID)
	assert.Equal(t, StatusClassified, result.NewStatus)
	require.NotNil(t, result.NextProteinID)
	assert.Equal(t, "P2", *result.NextProteinID)

	var candidate Candidate
	require.NoError(t, db.Where("protein_id = ?", "P1").First(&candidate).Error)
	assert.Equal(t, StatusClassified, candidate.CurationStatus)
	assert.NotNil(t, candidate.ClassifiedAt)
	assert.NotNil(t, candidate.ReviewedAt)

	var decisions []Decision
	require.NoError(t, db.Where("protein_id = ?", "P1").Find(&decisions).Error)
	require.Len(t, decisions, 1)
	assert.Equal(t, "alice", decisions[0].Curator)
	assert.Equal(t, DecisionApprove, decisions[0].DecisionType)
	assert.Equal(t, StatusPending, decisions[0].PreviousStatus)
	assert.Equal(t, StatusClassified, decisions[0].NewStatus)
}

func TestSubmitDecisionSkipLeavesCandidateUntouched(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedCandidate(t, db, "P1", intPtr(1))

	for i := 0; i < 2; i++ {
		result, err := store.SubmitDecision("P1", DecisionRequest{
			Curator:      "bob",
			DecisionType: DecisionSkip,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, result.NewStatus)
	}

	var candidate Candidate
	require.NoError(t, db.Where("protein_id = ?", "P1").First(&candidate).Error)
	assert.Equal(t, StatusPending, candidate.CurationStatus)
	assert.Nil(t, candidate.ClassifiedAt)
	assert.Nil(t, candidate.ReviewedAt)

	// Every skip still appends an audit row.
	var count int64
	require.NoError(t, db.Model(&Decision{}).Where("protein_id = ?", "P1").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSubmitDecisionFlagNovelForcesNovelFold(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedCandidate(t, db, "P1", intPtr(1))

	_, err := store.SubmitDecision("P1", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionFlagNovel,
		IsNovelFold:  boolPtr(false),
	})
	require.NoError(t, err)

	var candidate Candidate
	require.NoError(t, db.Where("protein_id = ?", "P1").First(&candidate).Error)
	assert.True(t, candidate.IsNovelFold)
	assert.Equal(t, StatusClassified, candidate.CurationStatus)
}

func TestSubmitDecisionEcodTriState(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedCandidate(t, db, "P1", intPtr(1))

	// First decision assigns X and H groups.
	_, err := store.SubmitDecision("P1", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionClassify,
		EcodXGroup:   nullableStr("2004"),
		EcodHGroup:   nullableStr("2004.1"),
	})
	require.NoError(t, err)

	var candidate Candidate
	require.NoError(t, db.Where("protein_id = ?", "P1").First(&candidate).Error)
	require.NotNil(t, candidate.EcodXGroup)
	assert.Equal(t, "2004", *candidate.EcodXGroup)
	require.NotNil(t, candidate.EcodHGroup)
	assert.Equal(t, "2004.1", *candidate.EcodHGroup)

	// Second decision clears H with an explicit null and leaves X absent.
	_, err = store.SubmitDecision("P1", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionClassify,
		EcodHGroup:   nullableNull(),
	})
	require.NoError(t, err)

	require.NoError(t, db.Where("protein_id = ?", "P1").First(&candidate).Error)
	require.NotNil(t, candidate.EcodXGroup)
	assert.Equal(t, "2004", *candidate.EcodXGroup)
	assert.Nil(t, candidate.EcodHGroup)
}

func TestSubmitDecisionNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	_, err := store.SubmitDecision("missing", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionApprove,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitDecisionValidation(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	_, err := store.SubmitDecision("P1", DecisionRequest{DecisionType: DecisionApprove})
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = store.SubmitDecision("P1", DecisionRequest{Curator: "alice", DecisionType: "promote"})
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = store.SubmitDecision("", DecisionRequest{Curator: "alice", DecisionType: DecisionApprove})
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestNextPendingOrderAndExclusions(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedProtein(t, db, "P2", "g1", true)
	seedProtein(t, db, "P3", "g1", false) // no structure, never next
	seedProtein(t, db, "P4", "g1", true)
	seedCandidate(t, db, "P1", intPtr(5))
	seedCandidate(t, db, "P2", intPtr(1))
	seedCandidate(t, db, "P3", intPtr(2))
	seedCandidate(t, db, "P4", nil) // null rank sorts last

	// Deciding P2 skips it and the structureless P3; lowest rank wins.
	result, err := store.SubmitDecision("P2", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionDefer,
	})
	require.NoError(t, err)
	require.NotNil(t, result.NextProteinID)
	assert.Equal(t, "P1", *result.NextProteinID)

	// With P1 also resolved only the null-rank P4 remains.
	result, err = store.SubmitDecision("P1", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionReject,
	})
	require.NoError(t, err)
	require.NotNil(t, result.NextProteinID)
	assert.Equal(t, "P4", *result.NextProteinID)

	result, err = store.SubmitDecision("P4", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionApprove,
	})
	require.NoError(t, err)
	assert.Nil(t, result.NextProteinID)
}

func TestMarkNeedsReanalysis(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedCandidate(t, db, "P1", intPtr(1))

	require.NoError(t, store.MarkNeedsReanalysis("P1", "admin", "pipeline bug in domain caller"))

	var candidate Candidate
	require.NoError(t, db.Where("protein_id = ?", "P1").First(&candidate).Error)
	assert.Equal(t, StatusNeedsReanalysis, candidate.CurationStatus)

	var decisions []Decision
	require.NoError(t, db.Where("protein_id = ?", "P1").Find(&decisions).Error)
	require.Len(t, decisions, 1)
	assert.Equal(t, decisionReanalysis, decisions[0].DecisionType)
	assert.Equal(t, StatusPending, decisions[0].PreviousStatus)
	assert.Equal(t, "pipeline bug in domain caller", decisions[0].Notes)

	err := store.MarkNeedsReanalysis("missing", "admin", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListQueueDefaultsAndOrdering(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedProtein(t, db, "P2", "g1", true)
	seedProtein(t, db, "P3", "g1", true)
	seedCandidate(t, db, "P1", nil)
	seedCandidate(t, db, "P2", intPtr(2))
	seedCandidate(t, db, "P3", intPtr(1))

	// P3 is already classified, so the default pending view drops it.
	_, err := store.SubmitDecision("P3", DecisionRequest{
		Curator:      "alice",
		DecisionType: DecisionApprove,
	})
	require.NoError(t, err)

	items, total, err := store.ListQueue(QueueFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "P2", items[0].ProteinID) // ranked before null rank
	assert.Equal(t, "P1", items[1].ProteinID)

	// "all" includes the classified candidate again.
	_, total, err = store.ListQueue(QueueFilter{Status: "all"}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestListQueueFilters(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedOrganism(t, db, "g2", "Thermoproteota", "Nitrososphaeria")
	seedProtein(t, db, "P1", "g1", true)
	seedProtein(t, db, "P2", "g2", false)
	seedCandidate(t, db, "P1", intPtr(1))
	require.NoError(t, db.Create(&Candidate{
		ProteinID:       "P2",
		NoveltyCategory: NoveltySequenceOrphan,
		CurationStatus:  StatusPending,
	}).Error)

	items, total, err := store.ListQueue(QueueFilter{Novelty: string(NoveltyDark)}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "P1", items[0].ProteinID)

	items, total, err = store.ListQueue(QueueFilter{HasStructure: boolPtr(false)}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "P2", items[0].ProteinID)

	items, total, err = store.ListQueue(QueueFilter{Taxonomy: "Nitrososphaeria"}, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "P2", items[0].ProteinID)
	assert.Equal(t, "Thermoproteota", items[0].Phylum)
}

func TestListDecisionsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	seedProtein(t, db, "P1", "g1", true)
	seedCandidate(t, db, "P1", intPtr(1))

	_, err := store.SubmitDecision("P1", DecisionRequest{Curator: "alice", DecisionType: DecisionSkip})
	require.NoError(t, err)
	_, err = store.SubmitDecision("P1", DecisionRequest{Curator: "bob", DecisionType: DecisionApprove})
	require.NoError(t, err)

	decisions, total, err := store.ListDecisions("P1", pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, decisions, 2)
	// Both rows survive; the trail is append-only.
	types := []DecisionType{decisions[0].DecisionType, decisions[1].DecisionType}
	assert.Contains(t, types, DecisionSkip)
	assert.Contains(t, types, DecisionApprove)
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	seedOrganism(t, db, "g1", "Asgard", "Lokiarchaeia")
	for _, id := range []string{"P1", "P2", "P3"} {
		seedProtein(t, db, id, "g1", true)
		seedCandidate(t, db, id, nil)
	}
	_, err := store.SubmitDecision("P1", DecisionRequest{Curator: "alice", DecisionType: DecisionApprove})
	require.NoError(t, err)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[StatusPending])
	assert.Equal(t, 1, stats.ByStatus[StatusClassified])
	assert.Equal(t, 3, stats.ByNovelty[NoveltyDark])
}
