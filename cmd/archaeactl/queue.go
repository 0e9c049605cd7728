package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	queueStatus   string
	queueNovelty  string
	queuePriority string
	queueTaxonomy string
	queuePageSize int
	queuePage     int
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List the curation review queue",
	RunE:  runQueue,
}

func init() {
	queueCmd.Flags().StringVar(&queueStatus, "status", "", "Filter by curation status (default pending, \"all\" for everything)")
	queueCmd.Flags().StringVar(&queueNovelty, "novelty", "", "Filter by novelty category")
	queueCmd.Flags().StringVar(&queuePriority, "priority", "", "Filter by priority category")
	queueCmd.Flags().StringVar(&queueTaxonomy, "taxonomy", "", "Filter by taxonomic class (exact match)")
	queueCmd.Flags().IntVar(&queuePageSize, "page-size", 20, "Number of queue entries per page")
	queueCmd.Flags().IntVar(&queuePage, "page", 1, "Page number")
}

type queueItem struct {
	ProteinID        string  `json:"protein_id"`
	NoveltyCategory  string  `json:"novelty_category"`
	PriorityCategory *string `json:"priority_category"`
	PriorityRank     *int    `json:"priority_rank"`
	CurationStatus   string  `json:"curation_status"`
	Length           int     `json:"length"`
	HasStructure     bool    `json:"has_structure"`
	Phylum           string  `json:"phylum"`
	Class            string  `json:"class"`
}

type queuePageResult struct {
	Items    []queueItem `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func runQueue(cmd *cobra.Command, args []string) error {
	client := newClient()

	q := url.Values{}
	if queueStatus != "" {
		q.Set("status", queueStatus)
	}
	if queueNovelty != "" {
		q.Set("novelty", queueNovelty)
	}
	if queuePriority != "" {
		q.Set("priority", queuePriority)
	}
	if queueTaxonomy != "" {
		q.Set("taxonomy", queueTaxonomy)
	}
	q.Set("page", fmt.Sprintf("%d", queuePage))
	q.Set("pageSize", fmt.Sprintf("%d", queuePageSize))

	var page queuePageResult
	if err := client.getJSON("/api/v1/curation/queue?"+q.Encode(), &page); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(page)
	}

	headers := []string{"Protein", "Novelty", "Priority", "Rank", "Status", "Length", "Phylum"}
	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		priority := "-"
		if item.PriorityCategory != nil {
			priority = *item.PriorityCategory
		}
		rank := "-"
		if item.PriorityRank != nil {
			rank = fmt.Sprintf("%d", *item.PriorityRank)
		}
		rows = append(rows, []string{
			item.ProteinID,
			item.NoveltyCategory,
			priority,
			rank,
			item.CurationStatus,
			fmt.Sprintf("%d", item.Length),
			truncate(item.Phylum, 30),
		})
	}

	printTable(headers, rows)
	fmt.Printf("\nShowing %d of %d (page %d)\n", len(page.Items), page.Total, page.Page)
	return nil
}
