package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := newClient()

	var healthResp map[string]any
	if err := client.getJSON("/healthz", &healthResp); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(healthResp)
	}

	status, _ := healthResp["status"].(string)

	printTable([]string{"Check", "Status"}, [][]string{
		{"Liveness", status},
	})
	return nil
}
