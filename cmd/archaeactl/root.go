package main

import (
	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
)

var rootCmd = &cobra.Command{
	Use:   "archaeactl",
	Short: "CLI for the archaeal protein structure dashboard",
	Long: `archaeactl talks to the archaea-vis server over its REST API.

It covers the day-to-day curation loop (queue, decide) plus quick
dashboard summaries (overview, health) without opening a browser.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Dashboard server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(decideCmd)
}
