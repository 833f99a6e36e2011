package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SRI-AIC/valet-sub000/internal/obs"
	"github.com/SRI-AIC/valet-sub000/internal/rulelsp"
)

// NewLSPCommand starts the rule-file language server over stdio.
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the rule-file Language Server Protocol server",
		Long: `Start a minimal LSP server for rule files: initialize,
textDocument/didOpen, textDocument/didChange (full-document sync), and
textDocument/publishDiagnostics for every broken statement. It communicates
via JSON-RPC over stdin/stdout and is typically started by an editor.`,
		RunE: runLSP,
	}
}

func runLSP(cmd *cobra.Command, args []string) error {
	server := rulelsp.NewServer(obs.New("info"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return server.Run(ctx, rulelsp.Stdio{})
}
