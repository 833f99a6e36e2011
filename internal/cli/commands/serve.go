package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/SRI-AIC/valet-sub000/internal/manager"
	"github.com/SRI-AIC/valet-sub000/internal/matchserver"
	"github.com/SRI-AIC/valet-sub000/internal/rulesconfig"
)

// NewServeCommand starts the live-scan HTTP/WebSocket server.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the live document-scan server",
		Long: `Start an HTTP server exposing POST /sessions, GET /sessions/{id}/stream,
and POST /sessions/{id}/documents for compiling a rule file into a live
scan session and streaming matches back over WebSocket as documents are
pushed to it. Reads valet.yml from the current directory for its listen
address and default import directory (see internal/rulesconfig).`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := rulesconfig.Load()
	if err != nil {
		return fmt.Errorf("serve: loading config: %w", err)
	}

	srv := matchserver.NewServer(manager.LoadOptions{BuiltinDataDir: cfg.BuiltinDataDir})
	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", cfg.ServerAddr)
	return http.ListenAndServe(cfg.ServerAddr, srv.Routes())
}
