// Package report writes batch outcomes as CSV decision reports.
package report

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/ledger-rules/internal/batch"
	"fjacquet/ledger-rules/internal/logging"

	"github.com/gocarina/gocsv"
)

// decisionRow is the CSV shape of one per-transaction decision.
type decisionRow struct {
	TransactionID      string `csv:"transaction_id"`
	Payee              string `csv:"payee"`
	Action             string `csv:"action"`
	Category           string `csv:"category"`
	RuleName           string `csv:"rule"`
	Confidence         int    `csv:"confidence"`
	AdjustedConfidence int    `csv:"adjusted_confidence"`
	Labels             string `csv:"labels"`
	Error              string `csv:"error"`
}

// WriteOutcome writes the outcome's per-transaction details to a CSV file,
// in processing order.
func WriteOutcome(path string, outcome *batch.Outcome, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	rows := make([]decisionRow, 0, len(outcome.Details))
	for _, detail := range outcome.Details {
		rows = append(rows, decisionRow{
			TransactionID:      detail.TransactionID,
			Payee:              detail.Payee,
			Action:             detail.Action,
			Category:           detail.Category,
			RuleName:           detail.RuleName,
			Confidence:         detail.Confidence,
			AdjustedConfidence: detail.AdjustedConfidence,
			Labels:             strings.Join(detail.Labels, "|"),
			Error:              detail.Error,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing report file %s: %w", path, err)
	}

	logger.Info("Wrote batch report",
		logging.Field{Key: "file", Value: path},
		logging.Field{Key: "rows", Value: len(rows)})

	return nil
}
