// Command valet compiles token-test, phrase, parse, coordinator, and frame
// rule files into NFAs and runs them over annotated token sequences.
package main

import (
	"os"

	"github.com/SRI-AIC/valet-sub000/internal/cli/commands"
)

// Version information, set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	commands.Version = Version
	commands.GitCommit = GitCommit
	commands.BuildDate = BuildDate
	commands.GoVersion = GoVersion

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
