package batch

import (
	"sync"

	"fjacquet/ledger-rules/internal/logging"
)

// Status classifies a shard result or a merged summary.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPartial Status = "partial"
)

// ShardResult is the reported outcome of one batch shard.
type ShardResult struct {
	Operation string
	Status    Status
	Data      map[string]float64
}

// Summary is the merged view over all reported shards.
type Summary struct {
	OperationType string
	Status        Status
	Totals        map[string]float64
	Successes     int
	Failures      int
	// Operations preserves insertion order for display only; the numeric
	// totals never depend on it.
	Operations []string
}

// Aggregator merges the outcomes of one or more batch shards. It is the only
// component that tolerates out-of-order and partial completion, so AddResult
// is safe to call from multiple goroutines.
type Aggregator struct {
	mu      sync.Mutex
	results []ShardResult
	logger  logging.Logger
}

// NewAggregator creates an empty aggregator.
func NewAggregator(logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Aggregator{logger: logger}
}

// AddResult records one shard outcome.
func (a *Aggregator) AddResult(operation string, status Status, data map[string]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	copied := make(map[string]float64, len(data))
	for k, v := range data {
		copied[k] = v
	}
	a.results = append(a.results, ShardResult{
		Operation: operation,
		Status:    status,
		Data:      copied,
	})

	a.logger.Debug("Shard result recorded",
		logging.Field{Key: "operation", Value: operation},
		logging.Field{Key: "status", Value: string(status)})
}

// MergeResults combines all recorded shards into a single summary. Numeric
// fields present in any successful shard are summed across all successful
// shards; fields missing from a shard contribute zero, and error shards are
// excluded from the totals. Summation is associative and commutative, so
// shards can be merged in any order.
func (a *Aggregator) MergeResults(operationType string) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := Summary{
		OperationType: operationType,
		Totals:        make(map[string]float64),
	}

	for _, result := range a.results {
		summary.Operations = append(summary.Operations, result.Operation)
		if result.Status == StatusError {
			summary.Failures++
			continue
		}
		summary.Successes++
		for key, value := range result.Data {
			summary.Totals[key] += value
		}
	}

	switch {
	case summary.Failures == 0:
		summary.Status = StatusSuccess
	case summary.Successes == 0:
		summary.Status = StatusError
	default:
		summary.Status = StatusPartial
	}

	return summary
}
