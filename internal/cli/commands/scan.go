package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SRI-AIC/valet-sub000/internal/cli/ui"
	"github.com/SRI-AIC/valet-sub000/internal/ledger"
	"github.com/SRI-AIC/valet-sub000/internal/manager"
	"github.com/SRI-AIC/valet-sub000/internal/tseq"
)

var (
	scanBuiltinDir string
	scanHistoryDB  string
)

// NewScanCommand builds the "scan" command: compile a rule file, scan a
// document file against every non-frame rule, and print every match.
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <rule-file> <document-file>",
		Short: "Scan an annotated document against a compiled rule file",
		Args:  cobra.ExactArgs(2),
		RunE:  runScan,
	}
	cmd.Flags().StringVar(&scanBuiltinDir, "builtin-dir", "", "directory searched last when resolving imports")
	cmd.Flags().StringVar(&scanHistoryDB, "history-db", "", "SQLite file to record this run's match counts into")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ruleFile, docFile := args[0], args[1]

	m, err := manager.LoadFile(ruleFile, manager.LoadOptions{BuiltinDataDir: scanBuiltinDir})
	if err != nil {
		reportLoadError(os.Stderr, err)
		return err
	}

	body, err := os.ReadFile(docFile)
	if err != nil {
		return err
	}
	doc, err := tseq.DecodeDocument(body)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ScanError("could not decode document", err.Error(), nil, false))
		return err
	}

	var store *ledger.Store
	if scanHistoryDB != "" {
		store, err = ledger.Open(scanHistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	table := ui.NewTable(cmd.OutOrStdout(), []string{"SEQUENCE", "RULE", "BEGIN", "END", "TEXT"}, nil)
	names := m.Names()
	started := time.Now()
	matchCounts := make(map[string]int, len(names))

	ui.WithProgress(cmd.OutOrStdout(), "scanning sequences", len(doc.Sequences), false, func(bar *ui.ProgressBar) error {
		for _, seq := range doc.Sequences {
			for _, n := range names {
				if n.Kind == manager.KindFrame {
					continue
				}
				ms, err := m.Scan(n.Name, seq)
				if err != nil {
					continue
				}
				matchCounts[n.Name] += len(ms)
				for _, mm := range ms {
					table.AddRow(seq.ID, n.Name, fmt.Sprint(mm.Begin()), fmt.Sprint(mm.End()), mm.MatchingText())
				}
			}
			bar.Add(1)
		}
		return nil
	})
	table.Render()

	if store != nil {
		for name, count := range matchCounts {
			run := ledger.Run{
				StartedAt:  started,
				RuleDir:    ruleFile,
				DocCount:   len(doc.Sequences),
				RuleName:   name,
				MatchCount: count,
			}
			if _, err := store.Record(run); err != nil {
				return err
			}
		}
	}

	return nil
}
