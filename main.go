// ledger-rules categorizes and labels ledger transactions with declarative
// rules, a confidence-gated decision policy, and an optional AI fallback.
package main

import (
	"os"

	"fjacquet/ledger-rules/cmd/lint"
	"fjacquet/ledger-rules/cmd/merchants"
	"fjacquet/ledger-rules/cmd/root"
	"fjacquet/ledger-rules/cmd/run"
)

func main() {
	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(lint.Cmd)
	root.Cmd.AddCommand(merchants.Cmd)

	if err := root.Cmd.Execute(); err != nil {
		root.Log.Error(err)
		os.Exit(1)
	}
}
