// Package ai builds requests for, and parses structured answers out of, an
// external language-model capability. The capability returns free-form text;
// the parsers here are the sole boundary, and anything that does not match
// the expected shape degrades to safe defaults rather than an error.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/models"
)

// Capability is the host-provided LLM surface: prompt in, free-form text out.
type Capability interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Validation is the outcome of a validation exchange.
type Validation string

const (
	ValidationConfirm Validation = "CONFIRM"
	ValidationReject  Validation = "REJECT"
	ValidationUnknown Validation = "UNKNOWN"
)

// ClassificationRequest is a prepared classification prompt together with the
// transaction ids the answer must be aligned to.
type ClassificationRequest struct {
	Prompt         string
	TransactionIDs []string
}

// ClassificationResult is one classified transaction.
type ClassificationResult struct {
	TransactionID string
	Category      string
	Confidence    int
	Reasoning     string
}

// ValidationRequest is a prepared validation prompt for a single suggestion.
type ValidationRequest struct {
	Prompt string
}

// ValidationResult is the parsed answer to a validation request.
type ValidationResult struct {
	Validation Validation
	Category   string
	Confidence int
	Reasoning  string
}

// BuildClassificationRequest builds the fallback-classification prompt for a
// batch of uncategorized transactions.
func BuildClassificationRequest(txs []models.Transaction, availableCategories []string) ClassificationRequest {
	var b strings.Builder
	b.WriteString("Classify the following financial transactions.\n")
	if len(availableCategories) > 0 {
		b.WriteString("Use only these categories: ")
		b.WriteString(strings.Join(availableCategories, ", "))
		b.WriteString("\n")
	}
	b.WriteString("Answer with a JSON array, one object per transaction in the same order, ")
	b.WriteString(`each shaped like {"transaction_id": "...", "category": "...", "confidence": 0-100, "reasoning": "..."}.` + "\n\n")

	ids := make([]string, 0, len(txs))
	for i, tx := range txs {
		ids = append(ids, tx.ID)
		fmt.Fprintf(&b, "%d. id=%s payee=%q amount=%s account=%q date=%s\n",
			i+1, tx.ID, tx.Payee, tx.Amount.String(), tx.AccountName, tx.Date.Format("2006-01-02"))
	}

	return ClassificationRequest{Prompt: b.String(), TransactionIDs: ids}
}

// BuildValidationRequest builds the prompt asking the model to confirm or
// reject a rule-derived category suggestion.
func BuildValidationRequest(tx models.Transaction, suggestedCategory string, ruleConfidence int) ValidationRequest {
	var b strings.Builder
	b.WriteString("A rule categorized this transaction; validate the suggestion.\n")
	fmt.Fprintf(&b, "Transaction: payee=%q amount=%s account=%q date=%s\n",
		tx.Payee, tx.Amount.String(), tx.AccountName, tx.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Suggested category: %q (confidence %d)\n", suggestedCategory, ruleConfidence)
	b.WriteString("Answer CONFIRM if the category fits, or REJECT with a better category.\n")
	b.WriteString(`Include "category: <name>" and "confidence: <0-100>" lines in your answer.` + "\n")
	return ValidationRequest{Prompt: b.String()}
}

// jsonArrayPattern extracts the first JSON array from a response that may be
// wrapped in markdown fences or surrounding prose.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParseClassificationResponse aligns the model answer to the given
// transaction ids. Entries naming a known transaction_id are matched by id;
// the rest are assigned positionally to the remaining ids. Entries beyond the
// id list are ignored and malformed confidences default to 50.
func ParseClassificationResponse(raw string, transactionIDs []string) []ClassificationResult {
	if len(transactionIDs) == 0 {
		return nil
	}

	match := jsonArrayPattern.FindString(raw)
	if match == "" {
		return nil
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(match), &entries); err != nil {
		return nil
	}

	idIndex := make(map[string]int, len(transactionIDs))
	for i, id := range transactionIDs {
		idIndex[id] = i
	}

	slots := make([]*ClassificationResult, len(transactionIDs))
	var unplaced []ClassificationResult

	for _, entry := range entries {
		result := ClassificationResult{
			Category:   stringField(entry, "category"),
			Confidence: confidenceField(entry, "confidence"),
			Reasoning:  stringField(entry, "reasoning"),
		}
		if id := stringField(entry, "transaction_id"); id != "" {
			if i, ok := idIndex[id]; ok && slots[i] == nil {
				result.TransactionID = id
				slots[i] = &result
				continue
			}
			// Unknown id: ignore the entry entirely.
			continue
		}
		unplaced = append(unplaced, result)
	}

	// Positional fill for entries that carried no id.
	next := 0
	for i := range slots {
		if slots[i] != nil {
			continue
		}
		if next >= len(unplaced) {
			break
		}
		result := unplaced[next]
		next++
		result.TransactionID = transactionIDs[i]
		slots[i] = &result
	}

	var results []ClassificationResult
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	return results
}

var (
	confidencePattern = regexp.MustCompile(`(?i)confidence[^0-9]{0,10}([0-9]{1,3})`)
	categoryPattern   = regexp.MustCompile(`(?i)category\s*[:=]\s*"?([^"\n]+?)"?\s*(?:\n|$)`)
)

// ParseValidationResponse interprets a validation answer. A response naming
// neither CONFIRM nor REJECT (or, ambiguously, both) parses as UNKNOWN, which
// the gate treats as "cannot confirm".
func ParseValidationResponse(raw, originalCategory string, originalConfidence int) ValidationResult {
	upper := strings.ToUpper(raw)
	hasConfirm := strings.Contains(upper, string(ValidationConfirm))
	hasReject := strings.Contains(upper, string(ValidationReject))

	result := ValidationResult{
		Validation: ValidationUnknown,
		Category:   originalCategory,
		Confidence: originalConfidence,
		Reasoning:  strings.TrimSpace(raw),
	}

	switch {
	case hasConfirm && !hasReject:
		result.Validation = ValidationConfirm
		if confidence, ok := parseConfidence(raw); ok {
			result.Confidence = confidence
		}
	case hasReject && !hasConfirm:
		result.Validation = ValidationReject
		result.Confidence = models.DefaultConfidence
		if confidence, ok := parseConfidence(raw); ok {
			result.Confidence = confidence
		}
		if m := categoryPattern.FindStringSubmatch(raw); m != nil {
			result.Category = strings.TrimSpace(m[1])
		}
	}

	return result
}

func parseConfidence(raw string) (int, bool) {
	m := confidencePattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	confidence, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return clampConfidence(confidence), true
}

func clampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

func stringField(entry map[string]interface{}, key string) string {
	if value, ok := entry[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func confidenceField(entry map[string]interface{}, key string) int {
	switch value := entry[key].(type) {
	case float64:
		return clampConfidence(int(value))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return clampConfidence(n)
		}
	}
	return models.DefaultConfidence
}

// Adapter drives a Capability through the request builders and parsers.
type Adapter struct {
	capability Capability
	logger     logging.Logger
}

// NewAdapter creates an adapter over the given capability.
func NewAdapter(capability Capability, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Adapter{capability: capability, logger: logger}
}

// ClassifyTransactions runs the fallback classification for uncategorized
// transactions and returns the results aligned to them.
func (a *Adapter) ClassifyTransactions(ctx context.Context, txs []models.Transaction, availableCategories []string) ([]ClassificationResult, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	request := BuildClassificationRequest(txs, availableCategories)
	raw, err := a.capability.Complete(ctx, request.Prompt)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	results := ParseClassificationResponse(raw, request.TransactionIDs)
	a.logger.Debug("Parsed classification response",
		logging.Field{Key: "requested", Value: len(txs)},
		logging.Field{Key: "classified", Value: len(results)})
	return results, nil
}

// ValidateClassification asks the model to confirm or reject a rule-derived
// suggestion for a single transaction.
func (a *Adapter) ValidateClassification(ctx context.Context, tx models.Transaction, suggestedCategory string, ruleConfidence int) (ValidationResult, error) {
	request := BuildValidationRequest(tx, suggestedCategory, ruleConfidence)
	raw, err := a.capability.Complete(ctx, request.Prompt)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validation request failed: %w", err)
	}

	result := ParseValidationResponse(raw, suggestedCategory, ruleConfidence)
	a.logger.Debug("Parsed validation response",
		logging.Field{Key: "transaction", Value: tx.ID},
		logging.Field{Key: "validation", Value: string(result.Validation)})
	return result, nil
}
