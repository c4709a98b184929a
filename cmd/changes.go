package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/rulewatch/pkg/audit"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recently archived snapshots across all documents (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		onlyChanges, _ := cmd.Flags().GetBool("changed")

		db, err := openArchive(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer db.Close()
		recent, err := db.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, s := range recent {
			if onlyChanges && !strings.HasPrefix(s.Summary, audit.ChangeSummaryPrefix) {
				continue
			}
			ts := s.CapturedAt.Local().Format("2006-01-02 15:04:05")
			fmt.Printf("%s  #%-5d  %-20s  %s\n", ts, s.ID, s.DocumentID, s.Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().Int("limit", 50, "Number of recent snapshots to show")
	changesCmd.Flags().Bool("changed", false, "Only show snapshots recorded because of a detected change")
}
