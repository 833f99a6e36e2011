package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SRI-AIC/valet-sub000/internal/cli/ui"
	"github.com/SRI-AIC/valet-sub000/internal/ledger"
)

var historyLimit int

// NewHistoryCommand lists recent `valet scan` runs recorded to a ledger
// database.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <history-db>",
		Short: "List recent scan runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ledger.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(historyLimit)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"STARTED", "RULE DIR", "RULE", "DOCS", "MATCHES"}, nil)
			for _, r := range runs {
				table.AddRow(r.StartedAt.Format("2006-01-02 15:04:05"), r.RuleDir, r.RuleName, fmt.Sprint(r.DocCount), fmt.Sprint(r.MatchCount))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	return cmd
}
