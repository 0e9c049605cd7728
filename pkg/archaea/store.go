package archaea

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/rschaeff/archaea-vis/pkg/filterquery"
	"github.com/rschaeff/archaea-vis/pkg/pagination"
)

// ErrNotFound is returned when a referenced protein, organism, or cluster
// does not exist.
var ErrNotFound = errors.New("not found")

// Store provides read-only database operations over the bulk-loaded tables.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates all bulk tables.
func (s *Store) AutoMigrate() error {
	models := []any{
		&Organism{}, &Protein{}, &Domain{}, &DomainPfamHit{},
		&Tier1Member{}, &Tier2Member{}, &CrossTierHit{},
		&StructuralClusterMember{},
	}
	for _, m := range models {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate bulk tables: %w", err)
		}
	}
	return nil
}

// ProteinFilter defines filters for listing proteins. Query is a free-form
// filterquery expression evaluated against the allow-listed columns below.
type ProteinFilter struct {
	GenomeID     string
	Source       string
	HasStructure *bool
	MinLength    int
	MaxLength    int
	Query        string
}

// proteinQueryFields is the allow-list for filterquery expressions on the
// protein list endpoint. Public field names map to internal columns; the
// expression itself never contributes an identifier to the SQL.
var proteinQueryFields = map[string]filterquery.Field{
	"protein_id":    {Column: "protein_id", Kind: filterquery.KindString},
	"genome_id":     {Column: "genome_id", Kind: filterquery.KindString},
	"source":        {Column: "source", Kind: filterquery.KindString},
	"length":        {Column: "length", Kind: filterquery.KindNumber},
	"avg_plddt":     {Column: "avg_plddt", Kind: filterquery.KindNumber},
	"has_structure": {Column: "has_structure", Kind: filterquery.KindBool},
	"has_pae":       {Column: "has_pae", Kind: filterquery.KindBool},
}

// proteinSortColumns is the allow-list of public sort keys for proteins.
// Unrecognized keys fall back to the default ordering.
var proteinSortColumns = map[string]string{
	"protein_id": "protein_id",
	"genome_id":  "genome_id",
	"length":     "length",
	"avg_plddt":  "avg_plddt",
	"source":     "source",
}

// ListProteins returns one page of proteins matching the filter, together
// with the unpaginated total.
func (s *Store) ListProteins(filter ProteinFilter, p pagination.Params) ([]Protein, int, error) {
	p = p.Normalize()

	var cond string
	var args []any
	if filter.Query != "" {
		expr, err := filterquery.Parse(filter.Query)
		if err != nil {
			return nil, 0, err
		}
		cond, args, err = expr.Translate(proteinQueryFields)
		if err != nil {
			return nil, 0, err
		}
	}

	// Build the filtered query fresh for count and page; reusing one GORM
	// chain across Count and Find carries the count select along.
	build := func() *gorm.DB {
		q := s.db.Model(&Protein{})
		if filter.GenomeID != "" {
			q = q.Where("genome_id = ?", filter.GenomeID)
		}
		if filter.Source != "" {
			q = q.Where("source = ?", filter.Source)
		}
		if filter.HasStructure != nil {
			q = q.Where("has_structure = ?", *filter.HasStructure)
		}
		if filter.MinLength > 0 {
			q = q.Where("length >= ?", filter.MinLength)
		}
		if filter.MaxLength > 0 {
			q = q.Where("length <= ?", filter.MaxLength)
		}
		if cond != "" {
			q = q.Where(cond, args...)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count proteins: %w", err)
	}

	column, ok := proteinSortColumns[p.OrderBy]
	if !ok {
		column = "protein_id"
	}
	order := column + " ASC"
	if p.SortOrder == "DESC" {
		order = column + " DESC"
	}

	var proteins []Protein
	err := build().Order(order).
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&proteins).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list proteins: %w", err)
	}
	return proteins, int(total), nil
}

// GetProtein returns the detail view of one protein: the row, its organism,
// domains with Pfam hits and Tier 2 membership, and its Tier 1 / structural
// cluster ids when present.
func (s *Store) GetProtein(proteinID string) (*ProteinDetail, error) {
	var protein Protein
	err := s.db.Where("protein_id = ?", proteinID).First(&protein).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("protein %q: %w", proteinID, ErrNotFound)
		}
		return nil, fmt.Errorf("get protein: %w", err)
	}

	detail := &ProteinDetail{Protein: protein}

	var organism Organism
	if err := s.db.Where("genome_id = ?", protein.GenomeID).First(&organism).Error; err == nil {
		detail.Organism = &organism
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get organism: %w", err)
	}

	domains, err := s.ListDomains(proteinID)
	if err != nil {
		return nil, err
	}
	detail.Domains = domains

	var t1 Tier1Member
	if err := s.db.Where("protein_id = ?", proteinID).First(&t1).Error; err == nil {
		detail.Tier1ClusterID = &t1.ClusterID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get tier1 membership: %w", err)
	}

	var sc StructuralClusterMember
	if err := s.db.Where("protein_id = ?", proteinID).First(&sc).Error; err == nil {
		detail.StructuralCluster = &sc.ClusterID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get structural cluster membership: %w", err)
	}

	return detail, nil
}

// ListDomains returns all domains of a protein ordered by domain_num, each
// with its Pfam hits and Tier 2 cluster id when the domain clustered.
func (s *Store) ListDomains(proteinID string) ([]DomainDetail, error) {
	var domains []Domain
	err := s.db.Where("protein_id = ?", proteinID).Order("domain_num ASC").Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}

	details := make([]DomainDetail, 0, len(domains))
	for _, d := range domains {
		dd := DomainDetail{Domain: d}

		if err := s.db.Where("domain_id = ?", d.ID).Order("bitscore DESC").Find(&dd.PfamHits).Error; err != nil {
			return nil, fmt.Errorf("list pfam hits: %w", err)
		}

		var t2 Tier2Member
		err := s.db.Where("protein_id = ? AND domain_num = ?", d.ProteinID, d.DomainNum).First(&t2).Error
		if err == nil {
			dd.Tier2ClusterID = &t2.ClusterID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get tier2 membership: %w", err)
		}

		details = append(details, dd)
	}
	return details, nil
}

// ListOrphanDomains returns one page of orphan domains, low-confidence
// calls with no Pfam hit at all, with the unpaginated total. These are the
// raw material the Tier 2 clustering draws from. Ordered by protein then
// domain number.
func (s *Store) ListOrphanDomains(p pagination.Params) ([]Domain, int, error) {
	p = p.Normalize()

	build := func() *gorm.DB {
		return s.db.Model(&Domain{}).
			Where("judge = ?", "low_confidence").
			Where("NOT EXISTS (SELECT 1 FROM domain_pfam_hits h WHERE h.domain_id = domains.id)")
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orphan domains: %w", err)
	}

	var domains []Domain
	err := build().Order("protein_id ASC, domain_num ASC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&domains).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orphan domains: %w", err)
	}
	return domains, int(total), nil
}

// ListOrganisms returns one page of organisms ordered by phylum then name.
func (s *Store) ListOrganisms(p pagination.Params) ([]Organism, int, error) {
	p = p.Normalize()

	var total int64
	if err := s.db.Model(&Organism{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count organisms: %w", err)
	}

	var organisms []Organism
	err := s.db.Order("phylum ASC, organism_name ASC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&organisms).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list organisms: %w", err)
	}
	return organisms, int(total), nil
}

// GetOrganism returns one organism by genome id.
func (s *Store) GetOrganism(genomeID string) (*Organism, error) {
	var organism Organism
	err := s.db.Where("genome_id = ?", genomeID).First(&organism).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("organism %q: %w", genomeID, ErrNotFound)
		}
		return nil, fmt.Errorf("get organism: %w", err)
	}
	return &organism, nil
}

// ListStructuralClusters returns one page of legacy structural cluster
// summaries ordered by member count descending.
func (s *Store) ListStructuralClusters(p pagination.Params) ([]StructuralClusterSummary, int, error) {
	p = p.Normalize()

	var members []StructuralClusterMember
	if err := s.db.Find(&members).Error; err != nil {
		return nil, 0, fmt.Errorf("list structural cluster members: %w", err)
	}

	byCluster := map[string]*StructuralClusterSummary{}
	order := []string{}
	for _, m := range members {
		summary, ok := byCluster[m.ClusterID]
		if !ok {
			summary = &StructuralClusterSummary{ClusterID: m.ClusterID}
			byCluster[m.ClusterID] = summary
			order = append(order, m.ClusterID)
		}
		summary.MemberCount++
		if m.IsRepresentative {
			summary.Representative = m.ProteinID
		}
	}

	summaries := make([]StructuralClusterSummary, 0, len(byCluster))
	for _, id := range order {
		summaries = append(summaries, *byCluster[id])
	}
	// Largest clusters first; cluster id breaks ties for stable pages.
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].MemberCount != summaries[j].MemberCount {
			return summaries[i].MemberCount > summaries[j].MemberCount
		}
		return summaries[i].ClusterID < summaries[j].ClusterID
	})

	page, total := pagination.Slice(summaries, p)
	return page, total, nil
}

// GetStructuralCluster returns the members of one legacy structural cluster.
func (s *Store) GetStructuralCluster(clusterID string) ([]StructuralClusterMember, error) {
	var members []StructuralClusterMember
	err := s.db.Where("cluster_id = ?", clusterID).Order("is_representative DESC, protein_id ASC").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("get structural cluster: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("structural cluster %q: %w", clusterID, ErrNotFound)
	}
	return members, nil
}
