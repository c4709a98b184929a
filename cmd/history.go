package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <documentId>",
	Short: "List the archived snapshots of a document, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openArchive(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer db.Close()

		history, err := db.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Printf("No snapshots archived for %s.\n", args[0])
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tCAPTURED\tAGE\tSIZE\tSUMMARY")
		for _, m := range history {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				m.ID,
				m.CapturedAt.Local().Format("2006-01-02 15:04:05"),
				humanize.Time(m.CapturedAt),
				humanize.Bytes(uint64(m.TextLength)),
				m.Summary)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
