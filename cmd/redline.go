package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/rulewatch/pkg/audit"
	"github.com/sw33tLie/rulewatch/pkg/redline"
	"github.com/sw33tLie/rulewatch/pkg/report"
)

// redlineCmd implements: rulewatch redline <fromId> <toId>
//
//	--format string   html, unified, rows or json
//	--out string      Output file (default stdout)
//	--context int     Unchanged lines kept around changes (-1 = all)
var redlineCmd = &cobra.Command{
	Use:   "redline <fromId> <toId>",
	Short: "Regenerate the redline between two archived snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}
		to, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[1])
		}
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		contextLines, _ := cmd.Flags().GetInt("context")

		db, err := openArchive(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer db.Close()

		rep, err := audit.Redline(cmd.Context(), db, from, to, contextLines)
		if err != nil {
			return err
		}

		if err := emitRedline(outPath, format, rep, contextLines); err != nil {
			return err
		}
		if outPath != "" {
			fmt.Fprintf(os.Stderr, "Redline %s written to %s (%s)\n", format, outPath, rep.Summary)
		}
		return nil
	},
}

type redlineWriter func(w io.Writer, rep report.Report, contextLines int) error

var redlineFormats = map[string]redlineWriter{
	"html": func(w io.Writer, rep report.Report, _ int) error {
		return report.WriteHTML(w, rep)
	},
	"unified": func(w io.Writer, rep report.Report, contextLines int) error {
		return report.WriteUnified(w, rep, contextLines)
	},
	"rows": func(w io.Writer, rep report.Report, _ int) error {
		return writeRows(w, rep.Rows)
	},
	"json": func(w io.Writer, rep report.Report, _ int) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

// emitRedline writes rep in format to outPath, or to stdout when outPath is
// empty. The format is checked before any file is created.
func emitRedline(outPath, format string, rep report.Report, contextLines int) (err error) {
	write, ok := redlineFormats[format]
	if !ok {
		return fmt.Errorf("unknown format %q (html, unified, rows, json)", format)
	}
	if outPath == "" {
		return write(os.Stdout, rep, contextLines)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, rep, contextLines)
}

var rowMarks = map[redline.Class]string{
	redline.ClassEqual:   " ",
	redline.ClassAdded:   "+",
	redline.ClassDeleted: "-",
	redline.ClassEmpty:   " ",
}

// writeRows prints the aligned rows as a plain two-column table.
func writeRows(w io.Writer, rows []redline.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cell := func(c redline.Cell) string {
		ln := ""
		if c.LineNo > 0 {
			ln = strconv.Itoa(c.LineNo)
		}
		return ln + "\t" + rowMarks[c.Class] + " " + c.Text
	}
	for _, r := range rows {
		if r.Skipped > 0 {
			fmt.Fprintf(tw, "\t... %d unchanged lines ...\t\t\n", r.Skipped)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", cell(r.Old), cell(r.New))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(redlineCmd)
	redlineCmd.Flags().StringP("format", "f", "html", "Output format: html, unified, rows or json")
	redlineCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	redlineCmd.Flags().Int("context", -1, "Unchanged lines kept around changes (-1 keeps all; unified defaults to 3)")
}
