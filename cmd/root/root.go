// Package root contains the root command for the application.
package root

import (
	"fjacquet/ledger-rules/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands.
	Log = logrus.New()

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "ledger-rules",
		Short: "Categorize and label ledger transactions with declarative rules.",
		Long: `ledger-rules applies category and label rules to transactions exported
from a ledger, gated by a confidence policy with an optional AI fallback.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to ledger-rules!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv(Log)
		},
	}
)
