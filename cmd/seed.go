package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/rulewatch/internal/utils"
)

const demoBaseline = `(a) Standards of Commercial Honor and Principles of Trade
A member, in the conduct of its business, shall observe high standards of commercial honor and just and equitable principles of trade.

(b) Prohibition Against Deceptive Practices
No member shall effect any transaction in, or induce the purchase or sale of, any security by means of any manipulative, deceptive or other fraudulent device or contrivance.`

const demoAddition = `
(c) New Requirement (Demo Update)
This section simulates a new regulatory requirement added by the SEC to demonstrate the redline capabilities. Because this text is NOT in the baseline, it will appear GREEN.`

var seedCmd = &cobra.Command{
	Use:   "seed <documentId>",
	Short: "Append two demo snapshots to a document's history",
	Long: `Appends a demo baseline and a demo update with one added section, so a
redline can be produced without fetching anything. Existing history is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		documentID := args[0]

		lock, err := lockArchive()
		if err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := openArchive(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer db.Close()

		baseID, err := db.Append(cmd.Context(), documentID, demoBaseline, "Historical Baseline (Demo)")
		if err != nil {
			return err
		}
		liveID, err := db.Append(cmd.Context(), documentID, demoBaseline+"\n"+demoAddition, "Live Audit (Demo)")
		if err != nil {
			return err
		}
		utils.Log.Infof("Seeded %s with snapshots #%d and #%d", documentID, baseID, liveID)
		fmt.Printf("rulewatch redline %d %d --out %s_demo.html\n", baseID, liveID, documentID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
