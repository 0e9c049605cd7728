package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show dashboard-level novelty statistics",
	RunE:  runOverview,
}

type overviewStats struct {
	Tier1Clusters            int `json:"tier1_clusters"`
	Tier1Proteins            int `json:"tier1_proteins"`
	Tier1MultiMemberClusters int `json:"tier1_multi_member_clusters"`
	Tier1CrossPhylumClusters int `json:"tier1_cross_phylum_clusters"`
	Tier2Clusters            int `json:"tier2_clusters"`
	Tier2Domains             int `json:"tier2_domains"`
	Tier2Proteins            int `json:"tier2_proteins"`
	Tier2PanPhylumClusters   int `json:"tier2_pan_phylum_clusters"`
	CrossTierHits            int `json:"cross_tier_hits"`
}

func runOverview(cmd *cobra.Command, args []string) error {
	client := newClient()

	var stats overviewStats
	if err := client.getJSON("/api/v1/overview", &stats); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(stats)
	}

	headers := []string{"Metric", "Count"}
	rows := [][]string{
		{"Tier 1 clusters", fmt.Sprintf("%d", stats.Tier1Clusters)},
		{"Tier 1 proteins", fmt.Sprintf("%d", stats.Tier1Proteins)},
		{"Tier 1 multi-member clusters", fmt.Sprintf("%d", stats.Tier1MultiMemberClusters)},
		{"Tier 1 cross-phylum clusters", fmt.Sprintf("%d", stats.Tier1CrossPhylumClusters)},
		{"Tier 2 clusters", fmt.Sprintf("%d", stats.Tier2Clusters)},
		{"Tier 2 domains", fmt.Sprintf("%d", stats.Tier2Domains)},
		{"Tier 2 proteins", fmt.Sprintf("%d", stats.Tier2Proteins)},
		{"Tier 2 pan-phylum clusters", fmt.Sprintf("%d", stats.Tier2PanPhylumClusters)},
		{"Cross-tier hits", fmt.Sprintf("%d", stats.CrossTierHits)},
	}

	printTable(headers, rows)
	return nil
}
