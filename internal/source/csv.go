// Package source loads transactions from a ledger CSV export. It stands in
// for the external ledger API on the CLI side; the engine itself only ever
// sees models.Transaction values.
package source

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// csvRow is the shape of one exported ledger row.
type csvRow struct {
	ID         string `csv:"id"`
	Date       string `csv:"date"`
	Payee      string `csv:"payee"`
	Amount     string `csv:"amount"`
	Account    string `csv:"account"`
	Category   string `csv:"category"`
	Confidence int    `csv:"confidence"`
	Labels     string `csv:"labels"`
}

const dateLayout = "2006-01-02"

// LoadTransactions reads a ledger CSV export into transactions, preserving
// file order. Rows that cannot be parsed fail the load; a partially read
// batch would silently skew every counter downstream.
func LoadTransactions(path string, logger logging.Logger) ([]models.Transaction, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening transactions file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing transactions file %s: %w", path, err)
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := rowToTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+1, path, err)
		}
		txs = append(txs, tx)
	}

	logger.Info("Loaded transactions",
		logging.Field{Key: "file", Value: path},
		logging.Field{Key: "count", Value: len(txs)})

	return txs, nil
}

func rowToTransaction(row csvRow) (models.Transaction, error) {
	if row.ID == "" {
		return models.Transaction{}, fmt.Errorf("missing transaction id")
	}

	date, err := time.Parse(dateLayout, row.Date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid date %q: %w", row.Date, err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", row.Amount, err)
	}

	tx := models.Transaction{
		ID:               row.ID,
		Date:             date,
		Payee:            row.Payee,
		Amount:           amount,
		AccountName:      row.Account,
		StoredConfidence: row.Confidence,
	}
	if row.Category != "" {
		tx.Category = &models.Category{Name: row.Category}
	}
	if row.Labels != "" {
		tx.Labels = strings.Split(row.Labels, "|")
	}
	return tx, nil
}
