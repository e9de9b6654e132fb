// Package batch applies the rule engine and confidence gate across a
// filtered, ordered set of transactions, and merges the outcomes of parallel
// shards into a single summary.
package batch

import (
	"context"
	"fmt"
	"time"

	"fjacquet/ledger-rules/internal/engine"
	"fjacquet/ledger-rules/internal/intelligence"
	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/models"
)

// Mode controls whether results are applied or only reported.
type Mode string

const (
	ModeDryRun   Mode = "dry_run"
	ModeValidate Mode = "validate"
	ModeApply    Mode = "apply"
)

// UpdateStrategy controls which transactions are attempted and when a new
// result replaces an existing category.
type UpdateStrategy string

const (
	StrategySkipExisting       UpdateStrategy = "skip_existing"
	StrategyReplaceAll         UpdateStrategy = "replace_all"
	StrategyUpgradeConfidence  UpdateStrategy = "upgrade_confidence"
	StrategyReplaceIfDifferent UpdateStrategy = "replace_if_different"
)

// ParseMode validates a batch mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDryRun, ModeValidate, ModeApply:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown batch mode %q", s)
}

// ParseStrategy validates an update strategy name from configuration.
func ParseStrategy(s string) (UpdateStrategy, error) {
	switch UpdateStrategy(s) {
	case StrategySkipExisting, StrategyReplaceAll, StrategyUpgradeConfidence, StrategyReplaceIfDifferent:
		return UpdateStrategy(s), nil
	}
	return "", fmt.Errorf("unknown update strategy %q", s)
}

// ApplyFunc is the injected write-back capability. It is invoked only in
// apply mode and only when the update strategy condition holds.
type ApplyFunc func(ctx context.Context, transactionID, category string, labels []string) error

// ProgressFunc is invoked before processing item i of n. It is the only
// extensibility point for real-time feedback; processing stays sequential.
type ProgressFunc func(i, n int, tx models.Transaction)

// Options parameterizes one processor run. Zero-valued filters mean no
// restriction; filters apply in the fixed order date range, accounts, limit.
type Options struct {
	Mode      Mode
	Strategy  UpdateStrategy
	StartDate time.Time
	EndDate   time.Time
	Accounts  []string
	Limit     int
	Progress  ProgressFunc
}

// Detail records the decision made for a single transaction.
type Detail struct {
	TransactionID      string
	Payee              string
	Action             string
	Category           string
	RuleName           string
	Confidence         int
	AdjustedConfidence int
	Labels             []string
	Error              string
}

// Outcome aggregates the counters of one processor run.
type Outcome struct {
	Total           int
	Processed       int
	Skipped         int
	Applied         int
	WouldCategorize int
	WouldChange     int
	Unchanged       int
	Upgraded        int
	Errors          int
	Details         []Detail
}

// Data flattens the counters for the result aggregator.
func (o *Outcome) Data() map[string]float64 {
	return map[string]float64{
		"total":            float64(o.Total),
		"processed":        float64(o.Processed),
		"skipped":          float64(o.Skipped),
		"applied":          float64(o.Applied),
		"would_categorize": float64(o.WouldCategorize),
		"would_change":     float64(o.WouldChange),
		"unchanged":        float64(o.Unchanged),
		"upgraded":         float64(o.Upgraded),
		"errors":           float64(o.Errors),
	}
}

// Processor runs the engine and gate across transaction batches. One
// processor owns its counters; parallelism happens by running independent
// processors over disjoint partitions and merging through the Aggregator.
type Processor struct {
	engine *engine.Engine
	gate   *intelligence.Gate
	apply  ApplyFunc
	logger logging.Logger
}

// NewProcessor creates a processor. The apply capability may be nil when the
// processor is only ever used in dry-run or validate mode.
func NewProcessor(eng *engine.Engine, gate *intelligence.Gate, apply ApplyFunc, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Processor{
		engine: eng,
		gate:   gate,
		apply:  apply,
		logger: logger,
	}
}

// Run processes the transactions sequentially in filtered order. A failure on
// one transaction is counted and recorded but never aborts the batch.
func (p *Processor) Run(ctx context.Context, txs []models.Transaction, opts Options) (*Outcome, error) {
	if opts.Mode == "" {
		return nil, fmt.Errorf("batch mode is required")
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategySkipExisting
	}
	if opts.Mode == ModeApply && p.apply == nil {
		return nil, fmt.Errorf("apply mode requires a write-back capability")
	}

	filtered := filterTransactions(txs, opts)
	outcome := &Outcome{Total: len(filtered)}

	p.logger.Info("Starting batch run",
		logging.Field{Key: "mode", Value: string(opts.Mode)},
		logging.Field{Key: "strategy", Value: string(opts.Strategy)},
		logging.Field{Key: "transactions", Value: len(filtered)})

	for i := range filtered {
		tx := filtered[i]
		if opts.Progress != nil {
			opts.Progress(i+1, len(filtered), tx)
		}
		p.processOne(ctx, tx, opts, outcome)
	}

	p.logger.Info("Batch run finished",
		logging.Field{Key: "processed", Value: outcome.Processed},
		logging.Field{Key: "applied", Value: outcome.Applied},
		logging.Field{Key: "skipped", Value: outcome.Skipped},
		logging.Field{Key: "errors", Value: outcome.Errors})

	return outcome, nil
}

func (p *Processor) processOne(ctx context.Context, tx models.Transaction, opts Options, outcome *Outcome) {
	if opts.Strategy == StrategySkipExisting && tx.HasCategory() {
		outcome.Skipped++
		outcome.Details = append(outcome.Details, Detail{
			TransactionID: tx.ID,
			Payee:         tx.Payee,
			Action:        "skip_existing",
			Category:      tx.CategoryName(),
		})
		return
	}

	outcome.Processed++

	decision := p.gate.Review(ctx, tx, p.engine.CategorizeAndLabel(tx))
	detail := Detail{
		TransactionID:      tx.ID,
		Payee:              tx.Payee,
		Action:             string(decision.Action),
		Category:           decision.Result.Category,
		RuleName:           decision.Result.MatchingRuleName,
		Confidence:         decision.Result.Confidence,
		AdjustedConfidence: decision.Result.AdjustedConfidence,
		Labels:             decision.Result.Labels,
	}

	switch opts.Mode {
	case ModeDryRun:
		if decision.Result.CategoryMatched {
			outcome.WouldCategorize++
		}

	case ModeValidate:
		if decision.Result.CategoryMatched && decision.Result.Category != tx.CategoryName() {
			outcome.WouldChange++
		} else {
			outcome.Unchanged++
		}

	case ModeApply:
		p.applyOne(ctx, tx, opts.Strategy, decision, &detail, outcome)
	}

	outcome.Details = append(outcome.Details, detail)
}

func (p *Processor) applyOne(ctx context.Context, tx models.Transaction, strategy UpdateStrategy, decision intelligence.Decision, detail *Detail, outcome *Outcome) {
	if !decision.Result.CategoryMatched || decision.Action != intelligence.ActionAutoApply {
		outcome.Skipped++
		return
	}

	upgraded := false
	switch strategy {
	case StrategyUpgradeConfidence:
		if decision.Result.EffectiveConfidence() <= tx.StoredConfidence {
			outcome.Skipped++
			detail.Action = "confidence_not_upgraded"
			return
		}
		upgraded = true
	case StrategyReplaceIfDifferent:
		if tx.HasCategory() && decision.Result.Category == tx.CategoryName() {
			outcome.Unchanged++
			detail.Action = "unchanged"
			return
		}
	}

	if err := p.apply(ctx, tx.ID, decision.Result.Category, decision.Result.Labels); err != nil {
		outcome.Errors++
		detail.Action = "error"
		detail.Error = err.Error()
		p.logger.WithError(err).Error("Write-back failed",
			logging.Field{Key: "transaction", Value: tx.ID})
		return
	}

	outcome.Applied++
	if upgraded {
		outcome.Upgraded++
	}
	detail.Action = "applied"
}

// filterTransactions applies the optional filters in their fixed order:
// date range, then account allow-list, then limit.
func filterTransactions(txs []models.Transaction, opts Options) []models.Transaction {
	filtered := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !opts.StartDate.IsZero() && tx.Date.Before(opts.StartDate) {
			continue
		}
		if !opts.EndDate.IsZero() && tx.Date.After(opts.EndDate) {
			continue
		}
		if len(opts.Accounts) > 0 && !containsString(opts.Accounts, tx.AccountName) {
			continue
		}
		filtered = append(filtered, tx)
	}
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
