package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/rulewatch/internal/utils"
	"github.com/sw33tLie/rulewatch/pkg/audit"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/entities"
	"github.com/sw33tLie/rulewatch/pkg/fetcher"
)

// auditCmd implements: rulewatch audit
//
//	--rules string       Tracked documents file (.json or .yaml)
//	--reports string     Directory for redline reports
//	--concurrency int    Number of documents checked at once
//	--mode string        Text extraction mode: text or markdown
//	--context int        Unchanged lines kept around changes in reports (-1 = all)
//	--document strings   Only check these document ids
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check every tracked document and archive new versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'rulewatch audit --help'", args[0])
		}
		ctx := cmd.Context()
		viper.BindPFlag("rules", cmd.Flags().Lookup("rules"))
		viper.BindPFlag("reports", cmd.Flags().Lookup("reports"))
		viper.BindPFlag("fetch.mode", cmd.Flags().Lookup("mode"))

		docs, err := documents.Load(viper.GetString("rules"))
		if err != nil {
			return err
		}
		only, _ := cmd.Flags().GetStringSlice("document")
		if docs, err = filterDocuments(docs, only); err != nil {
			return err
		}
		utils.Log.Infof("Loaded %d rules to track.", len(docs))

		f, err := fetcher.New(fetcher.Config{
			Timeout: viper.GetDuration("fetch.timeout"),
			Retries: viper.GetInt("fetch.retries"),
			Proxy:   viper.GetString("fetch.proxy"),
			Mode:    fetcher.ParseMode(viper.GetString("fetch.mode")),
		})
		if err != nil {
			return err
		}

		extractor, err := entities.NewRuleExtractor()
		if err != nil {
			utils.Log.Warnf("Entity recognizer unavailable, analysis will be empty: %v", err)
		}

		lock, err := lockArchive()
		if err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := openArchive(ctx, false)
		if err != nil {
			return err
		}
		defer db.Close()

		concurrency, _ := cmd.Flags().GetInt("concurrency")
		contextLines, _ := cmd.Flags().GetInt("context")
		auditor := &audit.Auditor{
			Store:          db,
			Fetcher:        f,
			Extractor:      extractor,
			ReportDir:      viper.GetString("reports"),
			Context:        contextLines,
			Log:            utils.Log,
			OnDocumentDone: printOutcome,
		}

		result := auditor.RunBatch(ctx, docs, concurrency)
		if result.AllFailed() {
			return errors.New("every document check failed")
		}
		return nil
	},
}

// printOutcome prints one line per checked document.
func printOutcome(o audit.Outcome) {
	switch o.Status {
	case audit.StatusBaseline:
		fmt.Printf("[%s] baseline recorded (snapshot #%d)\n", o.DocumentID, o.SnapshotID)
	case audit.StatusUnchanged:
		fmt.Printf("[%s] no changes\n", o.DocumentID)
	case audit.StatusChanged:
		fmt.Printf("[%s] CHANGED %s, snapshot #%d, report: %s\n", o.DocumentID, o.Changes, o.SnapshotID, o.ReportPath)
	default:
		fmt.Printf("[%s] %s: %v\n", o.DocumentID, o.Status, o.Err)
	}
}

func filterDocuments(docs []documents.Document, ids []string) ([]documents.Document, error) {
	if len(ids) == 0 {
		return docs, nil
	}
	var out []documents.Document
	for _, id := range ids {
		doc, ok := documents.Find(docs, strings.TrimSpace(id))
		if !ok {
			return nil, fmt.Errorf("document %q is not tracked", id)
		}
		out = append(out, doc)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().String("rules", "data/tracked_rules.json", "Tracked documents file (.json or .yaml)")
	auditCmd.Flags().String("reports", "reports", "Directory for redline reports")
	auditCmd.Flags().Int("concurrency", 1, "Number of documents checked at once")
	auditCmd.Flags().String("mode", "text", "Text extraction mode: text or markdown")
	auditCmd.Flags().Int("context", -1, "Unchanged lines kept around changes in reports (-1 keeps all)")
	auditCmd.Flags().StringSlice("document", nil, "Only check these document ids")
}
