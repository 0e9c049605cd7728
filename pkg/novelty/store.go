package novelty

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"gorm.io/gorm"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

// ErrNotFound is returned when a cluster id has no members.
var ErrNotFound = errors.New("cluster not found")

// Store provides the novelty-model read aggregations.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// memberRow is the typed projection of one cluster membership joined with
// its protein and organism. Loosely-typed rows never leave this boundary.
type memberRow struct {
	ClusterID  string
	ProteinID  string
	DomainNum  int
	Phylum     string
	GenomeID   string
	Plddt      *float64
	DpamProb   *float64
	DaliZscore *float64
}

func (s *Store) tier1Rows(clusterID string) ([]memberRow, error) {
	q := s.db.Table("tier1_members AS m").
		Select("m.cluster_id, m.protein_id, p.avg_plddt AS plddt, p.genome_id, o.phylum").
		Joins("JOIN proteins p ON p.protein_id = m.protein_id").
		Joins("JOIN organisms o ON o.genome_id = p.genome_id")
	if clusterID != "" {
		q = q.Where("m.cluster_id = ?", clusterID)
	}

	var rows []memberRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load tier1 members: %w", err)
	}
	return rows, nil
}

func (s *Store) tier2Rows(clusterID string) ([]memberRow, error) {
	q := s.db.Table("tier2_members AS m").
		Select("m.cluster_id, m.protein_id, m.domain_num, m.dali_zscore, d.dpam_prob, p.avg_plddt AS plddt, p.genome_id, o.phylum").
		Joins("JOIN domains d ON d.protein_id = m.protein_id AND d.domain_num = m.domain_num").
		Joins("JOIN proteins p ON p.protein_id = m.protein_id").
		Joins("JOIN organisms o ON o.genome_id = p.genome_id")
	if clusterID != "" {
		q = q.Where("m.cluster_id = ?", clusterID)
	}

	var rows []memberRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load tier2 members: %w", err)
	}
	return rows, nil
}

// summarize folds member rows into a ClusterSummary. Aggregates over
// nullable scores skip nulls; a cluster with no non-null values keeps nil
// aggregates rather than reporting zero.
func summarize(tier Tier, clusterID string, rows []memberRow) ClusterSummary {
	summary := ClusterSummary{
		ClusterID:   clusterID,
		Tier:        tier,
		ClusterSize: len(rows),
	}

	phyla := mapset.NewSet[string]()
	genomes := mapset.NewSet[string]()
	proteins := mapset.NewSet[string]()
	for _, row := range rows {
		phyla.Add(row.Phylum)
		genomes.Add(row.GenomeID)
		proteins.Add(row.ProteinID)

		if row.Plddt != nil {
			v := *row.Plddt
			if summary.MinPlddt == nil || v < *summary.MinPlddt {
				summary.MinPlddt = ptr(v)
			}
			if summary.MaxPlddt == nil || v > *summary.MaxPlddt {
				summary.MaxPlddt = ptr(v)
			}
			summary.AvgPlddt = accumulate(summary.AvgPlddt, v)
		}
		if tier == Tier2 {
			if row.DpamProb != nil {
				summary.AvgDpamProb = accumulate(summary.AvgDpamProb, *row.DpamProb)
			}
			if row.DaliZscore != nil {
				summary.AvgDaliZscore = accumulate(summary.AvgDaliZscore, *row.DaliZscore)
			}
		}
	}

	divide(summary.AvgPlddt, countNonNil(rows, func(r memberRow) bool { return r.Plddt != nil }))
	if tier == Tier2 {
		divide(summary.AvgDpamProb, countNonNil(rows, func(r memberRow) bool { return r.DpamProb != nil }))
		divide(summary.AvgDaliZscore, countNonNil(rows, func(r memberRow) bool { return r.DaliZscore != nil }))
		summary.ProteinCount = proteins.Cardinality()
		summary.DomainCount = len(rows)
	}

	summary.PhylumCount = phyla.Cardinality()
	summary.GenomeCount = genomes.Cardinality()
	summary.CrossPhylum = summary.PhylumCount > 1

	sorted := phyla.ToSlice()
	sort.Strings(sorted)
	summary.Phyla = strings.Join(sorted, ", ")

	return summary
}

func ptr(v float64) *float64 { return &v }

func accumulate(sum *float64, v float64) *float64 {
	if sum == nil {
		return ptr(v)
	}
	*sum += v
	return sum
}

func divide(sum *float64, n int) {
	if sum != nil && n > 0 {
		*sum /= float64(n)
	}
}

func countNonNil(rows []memberRow, present func(memberRow) bool) int {
	n := 0
	for _, r := range rows {
		if present(r) {
			n++
		}
	}
	return n
}

// SummarizeTier1Cluster computes the summary of one Tier 1 cluster.
// Returns ErrNotFound when the cluster id has no members.
func (s *Store) SummarizeTier1Cluster(clusterID string) (*ClusterSummary, error) {
	rows, err := s.tier1Rows(clusterID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("tier1 cluster %q: %w", clusterID, ErrNotFound)
	}
	summary := summarize(Tier1, clusterID, rows)
	return &summary, nil
}

// SummarizeTier2Cluster computes the summary of one Tier 2 cluster.
// Returns ErrNotFound when the cluster id has no members.
func (s *Store) SummarizeTier2Cluster(clusterID string) (*ClusterSummary, error) {
	rows, err := s.tier2Rows(clusterID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("tier2 cluster %q: %w", clusterID, ErrNotFound)
	}
	summary := summarize(Tier2, clusterID, rows)
	return &summary, nil
}

// clusterSortKeys maps public sort keys to comparators over summaries. An
// unrecognized key silently falls back to the default cluster_size DESC;
// that permissiveness is deliberate for a dashboard filter UI.
var clusterSortKeys = map[string]func(a, b ClusterSummary) int{
	"cluster_id":      func(a, b ClusterSummary) int { return strings.Compare(a.ClusterID, b.ClusterID) },
	"cluster_size":    func(a, b ClusterSummary) int { return a.ClusterSize - b.ClusterSize },
	"phylum_count":    func(a, b ClusterSummary) int { return a.PhylumCount - b.PhylumCount },
	"genome_count":    func(a, b ClusterSummary) int { return a.GenomeCount - b.GenomeCount },
	"protein_count":   func(a, b ClusterSummary) int { return a.ProteinCount - b.ProteinCount },
	"avg_plddt":       func(a, b ClusterSummary) int { return compareNullable(a.AvgPlddt, b.AvgPlddt) },
	"avg_dpam_prob":   func(a, b ClusterSummary) int { return compareNullable(a.AvgDpamProb, b.AvgDpamProb) },
	"avg_dali_zscore": func(a, b ClusterSummary) int { return compareNullable(a.AvgDaliZscore, b.AvgDaliZscore) },
}

// compareNullable orders nil after any value regardless of direction.
func compareNullable(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// ListClusters returns one page of cluster summaries for a tier, with the
// unpaginated total after filtering.
func (s *Store) ListClusters(tier Tier, filter ClusterFilter, p pagination.Params) ([]ClusterSummary, int, error) {
	var rows []memberRow
	var err error
	switch tier {
	case Tier1:
		rows, err = s.tier1Rows("")
	case Tier2:
		rows, err = s.tier2Rows("")
	default:
		return nil, 0, fmt.Errorf("unknown tier %q", tier)
	}
	if err != nil {
		return nil, 0, err
	}

	grouped := map[string][]memberRow{}
	for _, row := range rows {
		grouped[row.ClusterID] = append(grouped[row.ClusterID], row)
	}

	summaries := make([]ClusterSummary, 0, len(grouped))
	for clusterID, members := range grouped {
		// The phylum filter matches raw per-member values, not the joined
		// aggregate, so substrings cannot match across the join boundary.
		if filter.Phylum != "" && !anyPhylumContains(members, filter.Phylum) {
			continue
		}
		summary := summarize(tier, clusterID, members)
		if filter.MinSize > 0 && summary.ClusterSize < filter.MinSize {
			continue
		}
		if filter.CrossPhylum != nil && summary.CrossPhylum != *filter.CrossPhylum {
			continue
		}
		summaries = append(summaries, summary)
	}

	sortSummaries(summaries, p)
	page, total := pagination.Slice(summaries, p)
	return page, total, nil
}

func anyPhylumContains(rows []memberRow, substr string) bool {
	for _, row := range rows {
		if strings.Contains(row.Phylum, substr) {
			return true
		}
	}
	return false
}

func sortSummaries(summaries []ClusterSummary, p pagination.Params) {
	cmp, ok := clusterSortKeys[p.OrderBy]
	desc := p.SortOrder == "DESC"
	if !ok {
		cmp = clusterSortKeys["cluster_size"]
		desc = true
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		c := cmp(summaries[i], summaries[j])
		if c == 0 {
			// Cluster id breaks ties for stable pages.
			return summaries[i].ClusterID < summaries[j].ClusterID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// CrossTierHitsForProtein returns all cross-tier hits where the given
// Tier 1 protein is the tier-1 side, enriched with the Tier 2 cluster of
// the matched domain, ordered by similarity score descending.
func (s *Store) CrossTierHitsForProtein(proteinID string) ([]EnrichedHit, error) {
	var hits []archaea.CrossTierHit
	err := s.db.Where("t1_protein_id = ?", proteinID).Order("score DESC").Find(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("list cross-tier hits: %w", err)
	}

	sizes, err := s.tier2ClusterSizes()
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedHit, 0, len(hits))
	for _, h := range hits {
		e := newEnrichedHit(h)
		var member archaea.Tier2Member
		err := s.db.Where("protein_id = ? AND domain_num = ?", h.T2ProteinID, h.T2DomainNum).First(&member).Error
		if err == nil {
			e.ClusterID = &member.ClusterID
			size := sizes[member.ClusterID]
			e.ClusterSize = &size
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get tier2 membership: %w", err)
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

// CrossTierHitsForDomain returns all cross-tier hits where the given
// Tier 2 domain is the tier-2 side, enriched with the Tier 1 cluster of
// the matched protein, ordered by similarity score descending.
func (s *Store) CrossTierHitsForDomain(proteinID string, domainNum int) ([]EnrichedHit, error) {
	var hits []archaea.CrossTierHit
	err := s.db.Where("t2_protein_id = ? AND t2_domain_num = ?", proteinID, domainNum).
		Order("score DESC").Find(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("list cross-tier hits: %w", err)
	}

	sizes, err := s.tier1ClusterSizes()
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedHit, 0, len(hits))
	for _, h := range hits {
		e := newEnrichedHit(h)
		var member archaea.Tier1Member
		err := s.db.Where("protein_id = ?", h.T1ProteinID).First(&member).Error
		if err == nil {
			e.ClusterID = &member.ClusterID
			size := sizes[member.ClusterID]
			e.ClusterSize = &size
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get tier1 membership: %w", err)
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

func newEnrichedHit(h archaea.CrossTierHit) EnrichedHit {
	return EnrichedHit{
		T1ProteinID: h.T1ProteinID,
		T2ProteinID: h.T2ProteinID,
		T2DomainNum: h.T2DomainNum,
		Identity:    h.Identity,
		AlignLen:    h.AlignLen,
		Evalue:      h.Evalue,
		Score:       h.Score,
	}
}

type clusterCount struct {
	ClusterID string
	N         int
}

func (s *Store) tier1ClusterSizes() (map[string]int, error) {
	return s.clusterSizes("tier1_members")
}

func (s *Store) tier2ClusterSizes() (map[string]int, error) {
	return s.clusterSizes("tier2_members")
}

// clusterSizes counts members per cluster. The table name is one of the two
// compile-time membership tables, never caller input.
func (s *Store) clusterSizes(table string) (map[string]int, error) {
	var counts []clusterCount
	err := s.db.Table(table).
		Select("cluster_id, COUNT(*) AS n").
		Group("cluster_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count %s clusters: %w", table, err)
	}
	sizes := make(map[string]int, len(counts))
	for _, c := range counts {
		sizes[c.ClusterID] = c.N
	}
	return sizes, nil
}

// Overview computes the global dashboard statistics.
func (s *Store) Overview() (*OverviewStats, error) {
	stats := &OverviewStats{}

	t1Rows, err := s.tier1Rows("")
	if err != nil {
		return nil, err
	}
	t1 := map[string][]memberRow{}
	for _, row := range t1Rows {
		t1[row.ClusterID] = append(t1[row.ClusterID], row)
	}
	stats.Tier1Clusters = len(t1)
	stats.Tier1Proteins = len(t1Rows)
	for clusterID, members := range t1 {
		summary := summarize(Tier1, clusterID, members)
		if summary.ClusterSize > 1 {
			stats.Tier1MultiMemberClusters++
		}
		if summary.CrossPhylum {
			stats.Tier1CrossPhylumClusters++
		}
	}

	t2Rows, err := s.tier2Rows("")
	if err != nil {
		return nil, err
	}
	t2 := map[string][]memberRow{}
	proteins := mapset.NewSet[string]()
	for _, row := range t2Rows {
		t2[row.ClusterID] = append(t2[row.ClusterID], row)
		proteins.Add(row.ProteinID)
	}
	stats.Tier2Clusters = len(t2)
	stats.Tier2Domains = len(t2Rows)
	stats.Tier2Proteins = proteins.Cardinality()
	for clusterID, members := range t2 {
		if summarize(Tier2, clusterID, members).PhylumCount >= 5 {
			stats.Tier2PanPhylumClusters++
		}
	}

	var hitCount int64
	if err := s.db.Model(&archaea.CrossTierHit{}).Count(&hitCount).Error; err != nil {
		return nil, fmt.Errorf("count cross-tier hits: %w", err)
	}
	stats.CrossTierHits = int(hitCount)

	return stats, nil
}
