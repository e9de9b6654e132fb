// Package merchants contains the merchant grouping command.
package merchants

import (
	"fjacquet/ledger-rules/cmd/root"
	"fjacquet/ledger-rules/internal/merchant"
	"fjacquet/ledger-rules/internal/source"

	"github.com/spf13/cobra"
)

var (
	inputFile string
	threshold float64
)

// Cmd is the merchants command.
var Cmd = &cobra.Command{
	Use:   "merchants",
	Short: "Group payee variations to help author category rules",
	Long: `Merchants scans a transaction export, groups payee variations under
canonical merchant names by similarity, and prints the groups. The output is
a starting point for writing category rule patterns.`,
	RunE: groupMerchants,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Transactions CSV export (required)")
	Cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.8, "Similarity threshold for grouping")
	_ = Cmd.MarkFlagRequired("input")
}

func groupMerchants(cmd *cobra.Command, args []string) error {
	txs, err := source.LoadTransactions(inputFile, nil)
	if err != nil {
		return err
	}

	matcher := merchant.NewMatcher(nil)
	for _, tx := range txs {
		if tx.Payee == "" {
			continue
		}
		if canonical, ok := matcher.FindCanonical(tx.Payee); ok {
			matcher.AddVariation(canonical, tx.Payee)
			continue
		}
		if suggestions := matcher.SuggestMatches(tx.Payee, threshold); len(suggestions) > 0 {
			matcher.AddVariation(suggestions[0].CanonicalName, tx.Payee)
			continue
		}
		matcher.AddVariation(tx.Payee, tx.Payee)
	}

	for _, group := range matcher.Groups() {
		if len(group.Variations) < 2 {
			continue
		}
		root.Log.Infof("%s:", group.CanonicalName)
		for variation := range group.Variations {
			root.Log.Infof("  - %s", variation)
		}
	}

	return nil
}
