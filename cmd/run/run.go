// Package run contains the batch run command.
package run

import (
	"context"
	"fmt"
	"time"

	"fjacquet/ledger-rules/cmd/root"
	"fjacquet/ledger-rules/internal/batch"
	"fjacquet/ledger-rules/internal/config"
	"fjacquet/ledger-rules/internal/container"
	"fjacquet/ledger-rules/internal/models"
	"fjacquet/ledger-rules/internal/report"
	"fjacquet/ledger-rules/internal/source"

	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputFile string
	reportFile string
	modeFlag   string
	strategy   string
	accounts   []string
	fromDate   string
	toDate     string
	limit      int
)

// Cmd is the run command.
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rule engine across a transaction export",
	Long: `Run applies the category and label rules to every transaction in the
input CSV, gated by the configured intelligence mode, and reports the
per-transaction decisions.`,
	RunE: runBatch,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Transactions CSV export (required)")
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write updated transactions to this CSV")
	Cmd.Flags().StringVarP(&reportFile, "report", "r", "", "Write per-transaction decisions to this CSV")
	Cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Batch mode: dry_run, validate or apply")
	Cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Update strategy: skip_existing, replace_all, upgrade_confidence or replace_if_different")
	Cmd.Flags().StringSliceVarP(&accounts, "accounts", "a", nil, "Only process these account names")
	Cmd.Flags().StringVar(&fromDate, "from", "", "Start date (inclusive, YYYY-MM-DD)")
	Cmd.Flags().StringVar(&toDate, "to", "", "End date (inclusive, YYYY-MM-DD)")
	Cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Process at most this many transactions")
	_ = Cmd.MarkFlagRequired("input")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitializeConfig()
	if err != nil {
		return err
	}
	if modeFlag != "" {
		cfg.Batch.Mode = modeFlag
	}
	if strategy != "" {
		cfg.Batch.Strategy = strategy
	}

	mode, err := batch.ParseMode(cfg.Batch.Mode)
	if err != nil {
		return err
	}
	updateStrategy, err := batch.ParseStrategy(cfg.Batch.Strategy)
	if err != nil {
		return err
	}

	opts := batch.Options{
		Mode:     mode,
		Strategy: updateStrategy,
		Accounts: accounts,
		Limit:    limit,
		Progress: func(i, n int, tx models.Transaction) {
			root.Log.Debugf("Processing %d/%d: %s", i, n, tx.Payee)
		},
	}
	if limit == 0 {
		opts.Limit = cfg.Batch.Limit
	}
	if opts.StartDate, err = parseDate(fromDate); err != nil {
		return err
	}
	if opts.EndDate, err = parseDate(toDate); err != nil {
		return err
	}

	ctx := context.Background()

	logger := config.ConfigureLoggingFromConfig(cfg)
	txs, err := source.LoadTransactions(inputFile, nil)
	if err != nil {
		return err
	}

	// The write-back capability updates the in-memory batch; the updated
	// export is written out when --output is given.
	byID := make(map[string]*models.Transaction, len(txs))
	for i := range txs {
		byID[txs[i].ID] = &txs[i]
	}
	apply := func(_ context.Context, id, category string, labels []string) error {
		tx, ok := byID[id]
		if !ok {
			return fmt.Errorf("unknown transaction %s", id)
		}
		tx.Category = &models.Category{Name: category}
		tx.Labels = mergeLabels(tx.Labels, labels)
		return nil
	}

	c, err := container.NewContainer(ctx, cfg, apply)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	outcome, err := c.GetProcessor().Run(ctx, txs, opts)
	if err != nil {
		return err
	}

	logger.Infof("Batch complete: total=%d processed=%d applied=%d skipped=%d errors=%d",
		outcome.Total, outcome.Processed, outcome.Applied, outcome.Skipped, outcome.Errors)
	if mode == batch.ModeDryRun {
		logger.Infof("Dry run: would categorize %d transactions", outcome.WouldCategorize)
	}
	if mode == batch.ModeValidate {
		logger.Infof("Validation: %d would change, %d unchanged", outcome.WouldChange, outcome.Unchanged)
	}

	if reportFile != "" {
		if err := report.WriteOutcome(reportFile, outcome, c.GetLogger()); err != nil {
			return err
		}
	}
	if outputFile != "" && mode == batch.ModeApply {
		if err := source.WriteTransactions(outputFile, txs, c.GetLogger()); err != nil {
			return err
		}
	}

	return nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return date, nil
}

func mergeLabels(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := append([]string{}, existing...)
	for _, label := range existing {
		seen[label] = true
	}
	for _, label := range added {
		if !seen[label] {
			seen[label] = true
			merged = append(merged, label)
		}
	}
	return merged
}
