// Package novelty derives the two-tier novel-fold presentation model from
// the bulk tables: Tier 1 "dark protein" cluster summaries, Tier 2 "orphan
// domain" cluster summaries, cross-tier structural hits, and the global
// overview statistics. Everything here is a pure read aggregation.
package novelty

// Tier discriminates the two clustering pipelines.
type Tier string

const (
	// Tier1 groups whole proteins with zero domain calls ("dark proteins").
	Tier1 Tier = "tier1"
	// Tier2 groups low-confidence, Pfam-less domain calls ("orphan domains").
	Tier2 Tier = "tier2"
)

// ClusterSummary is the aggregated view of one novelty cluster. Quality
// aggregates are nil when no member carries the underlying score; they are
// never zeroed.
type ClusterSummary struct {
	ClusterID   string `json:"cluster_id"`
	Tier        Tier   `json:"tier"`
	ClusterSize int    `json:"cluster_size"`
	CrossPhylum bool   `json:"cross_phylum"`

	MinPlddt *float64 `json:"min_plddt"`
	MaxPlddt *float64 `json:"max_plddt"`
	AvgPlddt *float64 `json:"avg_plddt"`

	PhylumCount int    `json:"phylum_count"`
	GenomeCount int    `json:"genome_count"`
	Phyla       string `json:"phyla"`

	// Tier 2 only.
	AvgDpamProb   *float64 `json:"avg_dpam_prob,omitempty"`
	AvgDaliZscore *float64 `json:"avg_dali_zscore,omitempty"`
	ProteinCount  int      `json:"protein_count,omitempty"`
	DomainCount   int      `json:"domain_count,omitempty"`
}

// EnrichedHit is a cross-tier hit annotated with the cluster of the
// opposite side. Cluster fields are nil when the matched entity did not
// itself cluster.
type EnrichedHit struct {
	T1ProteinID string  `json:"t1_protein_id"`
	T2ProteinID string  `json:"t2_protein_id"`
	T2DomainNum int     `json:"t2_domain_num"`
	Identity    float64 `json:"identity"`
	AlignLen    int     `json:"align_len"`
	Evalue      float64 `json:"evalue"`
	Score       float64 `json:"score"`

	ClusterID   *string `json:"cluster_id"`
	ClusterSize *int    `json:"cluster_size"`
}

// OverviewStats is the headline dashboard aggregation.
type OverviewStats struct {
	Tier1Clusters            int `json:"tier1_clusters"`
	Tier1Proteins            int `json:"tier1_proteins"`
	Tier1MultiMemberClusters int `json:"tier1_multi_member_clusters"`
	Tier1CrossPhylumClusters int `json:"tier1_cross_phylum_clusters"`

	Tier2Clusters int `json:"tier2_clusters"`
	Tier2Domains  int `json:"tier2_domains"`
	Tier2Proteins int `json:"tier2_proteins"`
	// Tier 2 clusters spanning at least five phyla, the headline
	// pan-phylum novelty metric.
	Tier2PanPhylumClusters int `json:"tier2_pan_phylum_clusters"`

	CrossTierHits int `json:"cross_tier_hits"`
}

// ClusterFilter defines filters for listing clusters. Phylum is a substring
// match evaluated against raw per-member phylum values, not the joined
// phyla aggregate.
type ClusterFilter struct {
	MinSize     int
	CrossPhylum *bool
	Phylum      string
}
