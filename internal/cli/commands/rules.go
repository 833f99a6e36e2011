package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SRI-AIC/valet-sub000/internal/cli/ui"
	"github.com/SRI-AIC/valet-sub000/internal/manager"
	"github.com/SRI-AIC/valet-sub000/internal/rulelang"
	"github.com/SRI-AIC/valet-sub000/internal/rulelsp"
)

var rulesBuiltinDir string

// NewRulesCommand builds the "rules" command group: list, show, and lint.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rule files",
	}
	cmd.PersistentFlags().StringVar(&rulesBuiltinDir, "builtin-dir", "", "directory searched last when resolving imports")

	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesShowCommand())
	cmd.AddCommand(newRulesLintCommand())
	return cmd
}

// reportLoadError prints a tailored diagnostic for a manager.LoadFile
// failure: an unresolved `<-` import gets ImportNotFoundError (naming the
// candidate paths actually tried), everything else falls back to the
// generic CompileError.
func reportLoadError(w *os.File, err error) {
	var impErr *rulelang.ImportError
	if errors.As(err, &impErr) {
		fmt.Fprintln(w, ui.ImportNotFoundError(impErr.Path, impErr.Candidates, false))
		return
	}
	fmt.Fprintln(w, ui.CompileError(err.Error(), nil, false))
}

func newRulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <rule-file>",
		Short: "List every name a rule file defines, with its extractor kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager.LoadFile(args[0], manager.LoadOptions{BuiltinDataDir: rulesBuiltinDir})
			if err != nil {
				reportLoadError(os.Stderr, err)
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"NAME", "KIND"}, nil)
			for _, n := range m.Names() {
				table.AddRow(n.Name, n.Kind.String())
			}
			table.Render()
			return nil
		},
	}
}

func newRulesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-file> <name>",
		Short: "Print the extractor kind of one defined name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleFile, name := args[0], args[1]
			m, err := manager.LoadFile(ruleFile, manager.LoadOptions{BuiltinDataDir: rulesBuiltinDir})
			if err != nil {
				reportLoadError(os.Stderr, err)
				return err
			}

			names := m.Names()
			for _, n := range names {
				if n.Name == name {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", n.Name, n.Kind.String())
					return nil
				}
			}

			candidates := make([]string, 0, len(names))
			for _, n := range names {
				candidates = append(candidates, n.Name)
			}
			suggestions := ui.FindSimilar(name, candidates, nil)
			fmt.Fprintln(os.Stderr, ui.RuleNotFoundError(name, suggestions, false))
			return fmt.Errorf("rule %q not found in %s", name, ruleFile)
		},
	}
}

func newRulesLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <rule-file>",
		Short: "Report every unparseable line in a rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			diags := rulelsp.Diagnostics(string(data))
			if len(diags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("no broken statements found", false))
				return nil
			}
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d: %s\n", args[0], d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
			}
			return fmt.Errorf("%d broken statement(s)", len(diags))
		},
	}
}
