// Package lint contains the rule file validation command.
package lint

import (
	"fjacquet/ledger-rules/cmd/root"
	"fjacquet/ledger-rules/internal/rules"

	"github.com/spf13/cobra"
)

var rulesFile string

// Cmd is the lint command.
var Cmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a rule file without running anything",
	Long: `Lint loads and validates the rule file exactly the way the engine does
at startup, and reports the first problem it finds. A file that lints clean
will load.`,
	RunE: lintRules,
}

func init() {
	Cmd.Flags().StringVarP(&rulesFile, "rules", "f", "rules.yaml", "Rule file to validate")
}

func lintRules(cmd *cobra.Command, args []string) error {
	store := rules.NewStore(rulesFile, "", nil)
	ruleSet, err := store.LoadRuleSet()
	if err != nil {
		return err
	}

	root.Log.Infof("%s is valid: %d category rules, %d label rules",
		rulesFile, len(ruleSet.CategoryRules), len(ruleSet.LabelRules))
	return nil
}
