package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <snapshotId>",
	Short: "Print the archived text of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		db, err := openArchive(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer db.Close()

		snap, err := db.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if meta, _ := cmd.Flags().GetBool("meta"); meta {
			fmt.Printf("# %s snapshot #%d captured %s\n# %s\n\n",
				snap.DocumentID, snap.ID, snap.CapturedAt.Format("2006-01-02 15:04:05 MST"), snap.Summary)
		}
		fmt.Println(snap.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("meta", false, "Print a header with the snapshot metadata")
}
