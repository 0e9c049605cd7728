package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rschaeff/archaea-vis/pkg/archaea"
	"github.com/rschaeff/archaea-vis/pkg/curation"
)

const batchSize = 500

// Loader ingests TSV dumps into the database.
type Loader struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New creates a Loader.
func New(db *gorm.DB, logger *slog.Logger) *Loader {
	return &Loader{db: db, logger: logger}
}

// Run loads every table named by the manifest. Bulk tables are replaced
// wholesale (the pipeline produces complete dumps); the mutable curation
// tables are never wiped: candidate rows are inserted only for proteins
// that have none yet, so existing statuses and the audit trail survive.
func (l *Loader) Run(m *Manifest) error {
	bulk := []struct {
		name  string
		entry string
		load  func(string) (int, error)
	}{
		{"organisms", m.Organisms, l.loadOrganisms},
		{"proteins", m.Proteins, l.loadProteins},
		{"domains", m.Domains, l.loadDomains},
		{"domain_pfam_hits", m.DomainPfamHits, l.loadPfamHits},
		{"tier1_members", m.Tier1Members, l.loadTier1},
		{"tier2_members", m.Tier2Members, l.loadTier2},
		{"cross_tier_hits", m.CrossTierHits, l.loadCrossTierHits},
		{"structural_cluster_members", m.StructuralClusterMembers, l.loadStructuralClusters},
	}

	for _, t := range bulk {
		if t.entry == "" {
			continue
		}
		n, err := t.load(m.resolve(t.entry))
		if err != nil {
			return fmt.Errorf("load %s: %w", t.name, err)
		}
		l.logger.Info("loaded table", "table", t.name, "rows", n)
	}

	if m.CurationCandidates != "" {
		n, err := l.loadCandidates(m.resolve(m.CurationCandidates))
		if err != nil {
			return fmt.Errorf("load curation_candidates: %w", err)
		}
		l.logger.Info("seeded curation candidates", "rows", n)
	}

	return nil
}

// tsvReader opens a TSV file and returns its header row and a reader
// positioned at the first data row.
func tsvReader(path string) (*os.File, *csv.Reader, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return f, r, cols, nil
}

// require verifies the header carries every named column.
func require(cols map[string]int, names ...string) error {
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}
	return nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func intField(record []string, cols map[string]int, name string) int {
	n, _ := strconv.Atoi(field(record, cols, name))
	return n
}

func floatField(record []string, cols map[string]int, name string) float64 {
	v, _ := strconv.ParseFloat(field(record, cols, name), 64)
	return v
}

func boolField(record []string, cols map[string]int, name string) bool {
	v := field(record, cols, name)
	return v == "true" || v == "1" || v == "t"
}

func strPtr(record []string, cols map[string]int, name string) *string {
	v := field(record, cols, name)
	if v == "" {
		return nil
	}
	return &v
}

func floatPtr(record []string, cols map[string]int, name string) *float64 {
	s := field(record, cols, name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func intPtr(record []string, cols map[string]int, name string) *int {
	s := field(record, cols, name)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// loadTable replaces a bulk table: wipe, then batch-insert every TSV row
// converted by build.
func loadTable[T any](l *Loader, path string, model any, requireCols []string, build func([]string, map[string]int) T) (int, error) {
	f, r, cols, err := tsvReader(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := require(cols, requireCols...); err != nil {
		return 0, err
	}

	var rows []T
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, build(record, cols))
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("wipe table: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (l *Loader) loadOrganisms(path string) (int, error) {
	return loadTable(l, path, &archaea.Organism{},
		[]string{"genome_id", "organism_name", "phylum"},
		func(rec []string, cols map[string]int) archaea.Organism {
			return archaea.Organism{
				GenomeID:     field(rec, cols, "genome_id"),
				OrganismName: field(rec, cols, "organism_name"),
				Phylum:       field(rec, cols, "phylum"),
				Class:        field(rec, cols, "class"),
				OrderName:    field(rec, cols, "order_name"),
				ProteinCount: intField(rec, cols, "protein_count"),
			}
		})
}

func (l *Loader) loadProteins(path string) (int, error) {
	return loadTable(l, path, &archaea.Protein{},
		[]string{"protein_id", "genome_id", "length", "source"},
		func(rec []string, cols map[string]int) archaea.Protein {
			structure := strPtr(rec, cols, "structure_path")
			pae := strPtr(rec, cols, "pae_path")
			return archaea.Protein{
				ProteinID:     field(rec, cols, "protein_id"),
				GenomeID:      field(rec, cols, "genome_id"),
				Length:        intField(rec, cols, "length"),
				Source:        field(rec, cols, "source"),
				AvgPlddt:      floatPtr(rec, cols, "avg_plddt"),
				StructurePath: structure,
				PaePath:       pae,
				HasStructure:  structure != nil,
				HasPae:        pae != nil,
			}
		})
}

func (l *Loader) loadDomains(path string) (int, error) {
	return loadTable(l, path, &archaea.Domain{},
		[]string{"protein_id", "domain_num", "start_res", "end_res", "judge"},
		func(rec []string, cols map[string]int) archaea.Domain {
			return archaea.Domain{
				ProteinID: field(rec, cols, "protein_id"),
				DomainNum: intField(rec, cols, "domain_num"),
				StartRes:  intField(rec, cols, "start_res"),
				EndRes:    intField(rec, cols, "end_res"),
				TGroup:    strPtr(rec, cols, "t_group"),
				Judge:     field(rec, cols, "judge"),
				DpamProb:  floatPtr(rec, cols, "dpam_prob"),
				HHProb:    floatPtr(rec, cols, "hh_prob"),
			}
		})
}

func (l *Loader) loadPfamHits(path string) (int, error) {
	return loadTable(l, path, &archaea.DomainPfamHit{},
		[]string{"domain_id", "pfam_acc"},
		func(rec []string, cols map[string]int) archaea.DomainPfamHit {
			return archaea.DomainPfamHit{
				DomainID: uint(intField(rec, cols, "domain_id")),
				PfamAcc:  field(rec, cols, "pfam_acc"),
				PfamName: field(rec, cols, "pfam_name"),
				AliStart: intField(rec, cols, "ali_start"),
				AliEnd:   intField(rec, cols, "ali_end"),
				Bitscore: floatField(rec, cols, "bitscore"),
				Evalue:   floatField(rec, cols, "evalue"),
			}
		})
}

func (l *Loader) loadTier1(path string) (int, error) {
	return loadTable(l, path, &archaea.Tier1Member{},
		[]string{"cluster_id", "protein_id"},
		func(rec []string, cols map[string]int) archaea.Tier1Member {
			return archaea.Tier1Member{
				ClusterID:        field(rec, cols, "cluster_id"),
				ProteinID:        field(rec, cols, "protein_id"),
				IsRepresentative: boolField(rec, cols, "is_representative"),
			}
		})
}

func (l *Loader) loadTier2(path string) (int, error) {
	return loadTable(l, path, &archaea.Tier2Member{},
		[]string{"cluster_id", "protein_id", "domain_num"},
		func(rec []string, cols map[string]int) archaea.Tier2Member {
			return archaea.Tier2Member{
				ClusterID:  field(rec, cols, "cluster_id"),
				ProteinID:  field(rec, cols, "protein_id"),
				DomainNum:  intField(rec, cols, "domain_num"),
				DaliZscore: floatPtr(rec, cols, "dali_zscore"),
			}
		})
}

func (l *Loader) loadCrossTierHits(path string) (int, error) {
	return loadTable(l, path, &archaea.CrossTierHit{},
		[]string{"t1_protein_id", "t2_protein_id", "t2_domain_num"},
		func(rec []string, cols map[string]int) archaea.CrossTierHit {
			return archaea.CrossTierHit{
				T1ProteinID: field(rec, cols, "t1_protein_id"),
				T2ProteinID: field(rec, cols, "t2_protein_id"),
				T2DomainNum: intField(rec, cols, "t2_domain_num"),
				Identity:    floatField(rec, cols, "identity"),
				AlignLen:    intField(rec, cols, "align_len"),
				Evalue:      floatField(rec, cols, "evalue"),
				Score:       floatField(rec, cols, "score"),
			}
		})
}

func (l *Loader) loadStructuralClusters(path string) (int, error) {
	return loadTable(l, path, &archaea.StructuralClusterMember{},
		[]string{"cluster_id", "protein_id"},
		func(rec []string, cols map[string]int) archaea.StructuralClusterMember {
			return archaea.StructuralClusterMember{
				ClusterID:        field(rec, cols, "cluster_id"),
				ProteinID:        field(rec, cols, "protein_id"),
				IsRepresentative: boolField(rec, cols, "is_representative"),
			}
		})
}

// loadCandidates seeds curation candidates without touching existing rows:
// a protein already under curation keeps its status and audit trail across
// pipeline reloads.
func (l *Loader) loadCandidates(path string) (int, error) {
	f, r, cols, err := tsvReader(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := require(cols, "protein_id", "novelty_category"); err != nil {
		return 0, err
	}

	var rows []curation.Candidate
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, curation.Candidate{
			ProteinID:        field(record, cols, "protein_id"),
			NoveltyCategory:  curation.NoveltyCategory(field(record, cols, "novelty_category")),
			PriorityCategory: strPtr(record, cols, "priority_category"),
			PriorityRank:     intPtr(record, cols, "priority_rank"),
			CurationStatus:   curation.StatusPending,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err = l.db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, batchSize).Error
	if err != nil {
		return 0, fmt.Errorf("insert candidates: %w", err)
	}
	return len(rows), nil
}
