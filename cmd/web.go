package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/rulewatch/internal/server"
	"github.com/sw33tLie/rulewatch/internal/utils"
	"github.com/sw33tLie/rulewatch/pkg/audit"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/entities"
	"github.com/sw33tLie/rulewatch/pkg/fetcher"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the archive browser",
	Long:  `Start a web server to browse document histories and redlines, with an optional on-demand check endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.BindPFlag("rules", cmd.Flags().Lookup("rules"))
		viper.BindPFlag("web.username", cmd.Flags().Lookup("username"))
		viper.BindPFlag("web.password", cmd.Flags().Lookup("password"))

		db, err := openArchive(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer db.Close()

		addr, _ := cmd.Flags().GetString("bind")
		contextLines, _ := cmd.Flags().GetInt("context")

		srv := server.New(db, viper.GetString("web.username"), viper.GetString("web.password"))
		srv.Context = contextLines

		// Document names and sources are optional decoration.
		docs, err := documents.Load(viper.GetString("rules"))
		if err != nil {
			utils.Log.Warnf("Could not load tracked documents: %v", err)
		}
		srv.Documents = docs

		if allow, _ := cmd.Flags().GetBool("allow-checks"); allow && len(docs) > 0 {
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
			lock, err := utils.NewArchiveLock(viper.GetString("dbpath"))
			if err != nil {
				return err
			}
			srv.Auditor = &audit.Auditor{
				Store:     db,
				Fetcher:   f,
				Extractor: extractor,
				ReportDir: viper.GetString("reports"),
				Context:   contextLines,
				Log:       utils.Log,
				Metrics:   audit.NewMetrics(prometheus.DefaultRegisterer),
			}
			srv.WriteLock = lock
		}

		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	webCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	webCmd.Flags().String("rules", "data/tracked_rules.json", "Tracked documents file, used for names and on-demand checks")
	webCmd.Flags().Bool("allow-checks", false, "Enable POST /api/documents/{id}/check")
	webCmd.Flags().Int("context", 5, "Unchanged lines kept around changes on redline pages (-1 keeps all)")
}
