// Package commands assembles the valet CLI's cobra command tree: scan,
// rules, new, serve, lsp, history, completion, version.
package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time via -ldflags.
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand builds the root "valet" command and wires every
// subcommand onto it.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "valet",
		Short: "Rule-driven information extraction for annotated token sequences",
		Long: color.CyanString(`valet - rule-driven information extraction

valet compiles token-test, phrase, parse, coordinator, and frame rule
files into NFAs and runs them over annotated token sequences.

Features:
  • Five extractor kinds compiled to a shared regex IR
  • Live scan sessions over WebSocket
  • A diagnostics-only language server for rule files
  • A SQLite-backed run history`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewRulesCommand())
	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewLSPCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand reports build-time version information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the valet version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Print("valet version: ")
			valueColor.Println(Version)

			titleColor.Print("Git commit: ")
			valueColor.Println(GitCommit)

			titleColor.Print("Build date: ")
			valueColor.Println(BuildDate)

			titleColor.Print("Go version: ")
			valueColor.Println(goVer)
		},
	}
}

// Execute builds and runs the root command, printing a colored error on
// failure.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
