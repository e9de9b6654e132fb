package source

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/models"

	"github.com/gocarina/gocsv"
)

// WriteTransactions writes transactions back out in the ledger CSV export
// shape, preserving order.
func WriteTransactions(path string, txs []models.Transaction, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	rows := make([]csvRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, csvRow{
			ID:         tx.ID,
			Date:       tx.Date.Format(dateLayout),
			Payee:      tx.Payee,
			Amount:     tx.Amount.String(),
			Account:    tx.AccountName,
			Category:   tx.CategoryName(),
			Confidence: tx.StoredConfidence,
			Labels:     strings.Join(tx.Labels, "|"),
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating transactions file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing transactions file %s: %w", path, err)
	}

	logger.Info("Wrote transactions",
		logging.Field{Key: "file", Value: path},
		logging.Field{Key: "count", Value: len(rows)})

	return nil
}
