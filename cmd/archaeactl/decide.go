package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	decideCurator     string
	decideType        string
	decideEcodX       string
	decideEcodH       string
	decideEcodT       string
	decideEcodF       string
	decideNovelFold   bool
	decideNewTopology bool
	decideConfidence  string
	decideNotes       string
)

var decideCmd = &cobra.Command{
	Use:   "decide <protein-id>",
	Short: "Record a curation decision for a protein",
	Long: `Record a curation decision and advance the queue.

ECOD group flags are only sent when set; pass "none" to clear a
previously assigned group.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVar(&decideCurator, "curator", "", "Curator identity (required)")
	decideCmd.Flags().StringVar(&decideType, "type", "", "Decision type: approve, classify, flag_novel, defer, reject, skip (required)")
	decideCmd.Flags().StringVar(&decideEcodX, "ecod-x", "", "ECOD X-group assignment")
	decideCmd.Flags().StringVar(&decideEcodH, "ecod-h", "", "ECOD H-group assignment")
	decideCmd.Flags().StringVar(&decideEcodT, "ecod-t", "", "ECOD T-group assignment")
	decideCmd.Flags().StringVar(&decideEcodF, "ecod-f", "", "ECOD F-group assignment")
	decideCmd.Flags().BoolVar(&decideNovelFold, "novel-fold", false, "Mark the protein as a novel fold")
	decideCmd.Flags().BoolVar(&decideNewTopology, "new-topology", false, "Mark the protein as a new topology")
	decideCmd.Flags().StringVar(&decideConfidence, "confidence", "", "Curator confidence: high, medium, low")
	decideCmd.Flags().StringVar(&decideNotes, "notes", "", "Free-form curation notes")
	decideCmd.MarkFlagRequired("curator")
	decideCmd.MarkFlagRequired("type")
}

type decideResponse struct {
	Success     bool    `json:"success"`
	ProteinID   string  `json:"protein_id"`
	NewStatus   string  `json:"new_status"`
	NextProtein *string `json:"next_protein"`
}

func runDecide(cmd *cobra.Command, args []string) error {
	proteinID := args[0]
	client := newClient()

	body := map[string]any{
		"curator":       decideCurator,
		"decision_type": decideType,
		"notes":         decideNotes,
	}
	setEcod := func(key, value string) {
		if value == "none" {
			body[key] = nil
		} else {
			body[key] = value
		}
	}
	if cmd.Flags().Changed("ecod-x") {
		setEcod("ecod_x_group", decideEcodX)
	}
	if cmd.Flags().Changed("ecod-h") {
		setEcod("ecod_h_group", decideEcodH)
	}
	if cmd.Flags().Changed("ecod-t") {
		setEcod("ecod_t_group", decideEcodT)
	}
	if cmd.Flags().Changed("ecod-f") {
		setEcod("ecod_f_group", decideEcodF)
	}
	if cmd.Flags().Changed("novel-fold") {
		body["is_novel_fold"] = decideNovelFold
	}
	if cmd.Flags().Changed("new-topology") {
		body["is_new_topology"] = decideNewTopology
	}
	if cmd.Flags().Changed("confidence") {
		if decideConfidence == "none" {
			body["confidence"] = nil
		} else {
			body["confidence"] = decideConfidence
		}
	}

	var resp decideResponse
	if err := client.postJSON("/api/v1/curation/"+proteinID+"/decision", body, &resp); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(resp)
	}

	fmt.Printf("Recorded %s for %s (new status: %s)\n", decideType, resp.ProteinID, resp.NewStatus)
	if resp.NextProtein != nil {
		fmt.Printf("Next in queue: %s\n", *resp.NextProtein)
	} else {
		fmt.Println("Queue is empty.")
	}
	return nil
}
