// Package archaea holds the bulk-loaded entities of the dataset (organisms,
// proteins, domains, Pfam hits, and the legacy protein-level structural
// clusters) together with their read-only list/detail stores and handlers.
// All tables in this package are written once per pipeline run by the bulk
// loader and are immutable afterwards.
package archaea

// Organism is the GORM model for a source genome.
type Organism struct {
	GenomeID     string `gorm:"primaryKey;column:genome_id;type:varchar(64)" json:"genome_id"`
	OrganismName string `gorm:"column:organism_name;not null" json:"organism_name"`
	Phylum       string `gorm:"column:phylum;index:idx_organism_phylum;not null" json:"phylum"`
	Class        string `gorm:"column:class;index:idx_organism_class" json:"class"`
	OrderName    string `gorm:"column:order_name" json:"order_name"`
	ProteinCount int    `gorm:"column:protein_count" json:"protein_count"`
}

// TableName returns the GORM table name.
func (Organism) TableName() string { return "organisms" }

// Protein is the GORM model for a predicted protein structure.
type Protein struct {
	ProteinID     string   `gorm:"primaryKey;column:protein_id;type:varchar(64)" json:"protein_id"`
	GenomeID      string   `gorm:"column:genome_id;index:idx_protein_genome;not null" json:"genome_id"`
	Length        int      `gorm:"column:length;not null" json:"length"`
	Source        string   `gorm:"column:source;index:idx_protein_source;not null" json:"source"`
	AvgPlddt      *float64 `gorm:"column:avg_plddt" json:"avg_plddt"`
	StructurePath *string  `gorm:"column:structure_path" json:"structure_path"`
	PaePath       *string  `gorm:"column:pae_path" json:"pae_path"`
	HasStructure  bool     `gorm:"column:has_structure;index:idx_protein_has_structure" json:"has_structure"`
	HasPae        bool     `gorm:"column:has_pae" json:"has_pae"`
}

// TableName returns the GORM table name.
func (Protein) TableName() string { return "proteins" }

// Domain is the GORM model for a domain call within a protein. DomainNum is
// 1-based and unique within the owning protein.
type Domain struct {
	ID        uint     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ProteinID string   `gorm:"column:protein_id;uniqueIndex:idx_domain_protein_num,priority:1;not null" json:"protein_id"`
	DomainNum int      `gorm:"column:domain_num;uniqueIndex:idx_domain_protein_num,priority:2;not null" json:"domain_num"`
	StartRes  int      `gorm:"column:start_res;not null" json:"start_res"`
	EndRes    int      `gorm:"column:end_res;not null" json:"end_res"`
	TGroup    *string  `gorm:"column:t_group" json:"t_group"`
	Judge     string   `gorm:"column:judge;index:idx_domain_judge" json:"judge"`
	DpamProb  *float64 `gorm:"column:dpam_prob" json:"dpam_prob"`
	HHProb    *float64 `gorm:"column:hh_prob" json:"hh_prob"`
}

// TableName returns the GORM table name.
func (Domain) TableName() string { return "domains" }

// DomainPfamHit is the GORM model for a Pfam alignment against a domain.
type DomainPfamHit struct {
	ID       uint    `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	DomainID uint    `gorm:"column:domain_id;index:idx_pfam_domain;not null" json:"domain_id"`
	PfamAcc  string  `gorm:"column:pfam_acc;not null" json:"pfam_acc"`
	PfamName string  `gorm:"column:pfam_name" json:"pfam_name"`
	AliStart int     `gorm:"column:ali_start" json:"ali_start"`
	AliEnd   int     `gorm:"column:ali_end" json:"ali_end"`
	Bitscore float64 `gorm:"column:bitscore" json:"bitscore"`
	Evalue   float64 `gorm:"column:evalue" json:"evalue"`
}

// TableName returns the GORM table name.
func (DomainPfamHit) TableName() string { return "domain_pfam_hits" }

// StructuralClusterMember is the GORM model for the legacy protein-level
// structural clustering, orthogonal to the novelty tiers.
type StructuralClusterMember struct {
	ID               uint   `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	ClusterID        string `gorm:"column:cluster_id;index:idx_struct_cluster;not null" json:"cluster_id"`
	ProteinID        string `gorm:"column:protein_id;uniqueIndex:idx_struct_member_protein;not null" json:"protein_id"`
	IsRepresentative bool   `gorm:"column:is_representative" json:"is_representative"`
}

// TableName returns the GORM table name.
func (StructuralClusterMember) TableName() string { return "structural_cluster_members" }

// Tier1Member is the GORM model for "dark protein" cluster membership:
// whole proteins with zero domain calls, grouped by structural similarity.
// A protein belongs to at most one Tier 1 cluster.
type Tier1Member struct {
	ID               uint   `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	ClusterID        string `gorm:"column:cluster_id;index:idx_t1_cluster;not null" json:"cluster_id"`
	ProteinID        string `gorm:"column:protein_id;uniqueIndex:idx_t1_member_protein;not null" json:"protein_id"`
	IsRepresentative bool   `gorm:"column:is_representative" json:"is_representative"`
}

// TableName returns the GORM table name.
func (Tier1Member) TableName() string { return "tier1_members" }

// Tier2Member is the GORM model for "orphan domain" cluster membership:
// low-confidence domain calls with no Pfam match, grouped at domain
// granularity. A domain belongs to at most one Tier 2 cluster.
type Tier2Member struct {
	ID         uint     `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	ClusterID  string   `gorm:"column:cluster_id;index:idx_t2_cluster;not null" json:"cluster_id"`
	ProteinID  string   `gorm:"column:protein_id;uniqueIndex:idx_t2_member_domain,priority:1;not null" json:"protein_id"`
	DomainNum  int      `gorm:"column:domain_num;uniqueIndex:idx_t2_member_domain,priority:2;not null" json:"domain_num"`
	DaliZscore *float64 `gorm:"column:dali_zscore" json:"dali_zscore"`
}

// TableName returns the GORM table name.
func (Tier2Member) TableName() string { return "tier2_members" }

// CrossTierHit is the GORM model for a directed structural-similarity edge
// from a Tier 1 protein to a Tier 2 domain.
type CrossTierHit struct {
	ID          uint    `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	T1ProteinID string  `gorm:"column:t1_protein_id;index:idx_xhit_t1;not null" json:"t1_protein_id"`
	T2ProteinID string  `gorm:"column:t2_protein_id;index:idx_xhit_t2,priority:1;not null" json:"t2_protein_id"`
	T2DomainNum int     `gorm:"column:t2_domain_num;index:idx_xhit_t2,priority:2;not null" json:"t2_domain_num"`
	Identity    float64 `gorm:"column:identity" json:"identity"`
	AlignLen    int     `gorm:"column:align_len" json:"align_len"`
	Evalue      float64 `gorm:"column:evalue" json:"evalue"`
	Score       float64 `gorm:"column:score" json:"score"`
}

// TableName returns the GORM table name.
func (CrossTierHit) TableName() string { return "cross_tier_hits" }

// ProteinDetail is the API-facing detail view of a protein: the row itself
// plus its domains (with Pfam hits), owning organism, and any cluster
// memberships.
type ProteinDetail struct {
	Protein
	Organism          *Organism      `json:"organism,omitempty"`
	Domains           []DomainDetail `json:"domains"`
	Tier1ClusterID    *string        `json:"tier1_cluster_id,omitempty"`
	StructuralCluster *string        `json:"structural_cluster_id,omitempty"`
}

// DomainDetail is a domain together with its Pfam hits and, when the domain
// is an orphan-domain cluster member, its Tier 2 cluster id.
type DomainDetail struct {
	Domain
	PfamHits       []DomainPfamHit `json:"pfam_hits"`
	Tier2ClusterID *string         `json:"tier2_cluster_id,omitempty"`
}

// StructuralClusterSummary is the list view of a legacy structural cluster.
type StructuralClusterSummary struct {
	ClusterID      string `json:"cluster_id"`
	MemberCount    int    `json:"member_count"`
	Representative string `json:"representative"`
}
