package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Import and inspect genealogy register transcripts",
	Long: `lineage is the command-line companion to the ingestion service.

It parses OCR register transcripts into a family graph, either as a dry
run that prints counts and anomalies, or by writing the graph straight
to the database without going through the queue.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
