package intelligence

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/ledger-rules/internal/ai"
	"fjacquet/ledger-rules/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier scripts the two adapter calls and counts them.
type stubClassifier struct {
	classification    []ai.ClassificationResult
	classificationErr error
	validation        ai.ValidationResult
	validationErr     error

	classifyCalls int
	validateCalls int
}

func (s *stubClassifier) ClassifyTransactions(ctx context.Context, txs []models.Transaction, availableCategories []string) ([]ai.ClassificationResult, error) {
	s.classifyCalls++
	return s.classification, s.classificationErr
}

func (s *stubClassifier) ValidateClassification(ctx context.Context, tx models.Transaction, suggestedCategory string, ruleConfidence int) (ai.ValidationResult, error) {
	s.validateCalls++
	return s.validation, s.validationErr
}

func gateTx() models.Transaction {
	return models.Transaction{
		ID:          "tx-1",
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Payee:       "WOOLWORTHS METRO",
		Amount:      decimal.NewFromFloat(-45.50),
		AccountName: "Personal",
	}
}

func matchedResult(category string, confidence int) models.MatchResult {
	result := models.NewMatchResult()
	result.CategoryMatched = true
	result.Category = category
	result.MatchingRuleName = "groceries"
	result.Confidence = confidence
	return result
}

func TestReviewHighConfidenceAutoApplies(t *testing.T) {
	classifier := &stubClassifier{}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 95))

	assert.Equal(t, ActionAutoApply, decision.Action)
	assert.Equal(t, "Groceries", decision.Result.Category)
	assert.Zero(t, classifier.validateCalls)
	assert.Zero(t, classifier.classifyCalls)
}

func TestReviewLowConfidenceSkips(t *testing.T) {
	classifier := &stubClassifier{}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 40))

	assert.Equal(t, ActionSkip, decision.Action)
	assert.Zero(t, classifier.validateCalls)
}

func TestReviewConservativeNeverConsultsClassifier(t *testing.T) {
	classifier := &stubClassifier{}
	gate := NewGate(ModeConservative, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 100))

	assert.Equal(t, ActionNeedsApproval, decision.Action)
	assert.Zero(t, classifier.validateCalls)
}

func TestValidateWithoutClassifierDegradesToApproval(t *testing.T) {
	gate := NewGate(ModeSmart, nil, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	assert.Equal(t, ActionNeedsApproval, decision.Action)
	assert.Equal(t, "Groceries", decision.Result.Category)
}

func TestValidateConfirmAutoApplies(t *testing.T) {
	classifier := &stubClassifier{
		validation: ai.ValidationResult{Validation: ai.ValidationConfirm, Category: "Groceries", Confidence: 85},
	}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	assert.Equal(t, ActionAutoApply, decision.Action)
	assert.Equal(t, 1, classifier.validateCalls)
	assert.Equal(t, 75, decision.Result.Confidence)
	assert.Equal(t, 85, decision.Result.AdjustedConfidence)
	assert.Equal(t, 85, decision.Result.EffectiveConfidence())
}

func TestValidateConfirmNeverLowersConfidence(t *testing.T) {
	classifier := &stubClassifier{
		validation: ai.ValidationResult{Validation: ai.ValidationConfirm, Category: "Groceries", Confidence: 60},
	}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	assert.Equal(t, ActionAutoApply, decision.Action)
	assert.Equal(t, 75, decision.Result.AdjustedConfidence)
}

func TestValidateRejectReplacesCategory(t *testing.T) {
	classifier := &stubClassifier{
		validation: ai.ValidationResult{Validation: ai.ValidationReject, Category: "Dining", Confidence: 95},
	}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	assert.Equal(t, ActionAutoApply, decision.Action)
	assert.Equal(t, "Dining", decision.Result.Category)
	assert.Equal(t, 75, decision.Result.Confidence)
	assert.Equal(t, 95, decision.Result.AdjustedConfidence)
}

func TestValidateRejectInValidationBandNeedsApproval(t *testing.T) {
	classifier := &stubClassifier{
		validation: ai.ValidationResult{Validation: ai.ValidationReject, Category: "Dining", Confidence: 75},
	}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	// The model does not get to confirm its own substitution.
	assert.Equal(t, ActionNeedsApproval, decision.Action)
	assert.Equal(t, "Dining", decision.Result.Category)
	assert.Equal(t, 1, classifier.validateCalls)
}

func TestValidateUnknownNeedsApproval(t *testing.T) {
	classifier := &stubClassifier{
		validation: ai.ValidationResult{Validation: ai.ValidationUnknown, Category: "Groceries", Confidence: 75},
	}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	assert.Equal(t, ActionNeedsApproval, decision.Action)
	assert.Equal(t, "Groceries", decision.Result.Category)
}

func TestValidateErrorNeedsApproval(t *testing.T) {
	classifier := &stubClassifier{validationErr: errors.New("model unavailable")}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), matchedResult("Groceries", 75))

	assert.Equal(t, ActionNeedsApproval, decision.Action)
}

func TestUnmatchedWithoutClassifierSkips(t *testing.T) {
	gate := NewGate(ModeSmart, nil, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), models.NewMatchResult())

	assert.Equal(t, ActionSkip, decision.Action)
	assert.False(t, decision.Result.CategoryMatched)
}

func TestUnmatchedFallbackAutoApplies(t *testing.T) {
	classifier := &stubClassifier{
		classification: []ai.ClassificationResult{
			{TransactionID: "tx-1", Category: "Groceries", Confidence: 95, Reasoning: "grocery chain"},
		},
	}
	gate := NewGate(ModeSmart, classifier, []string{"Groceries", "Dining"}, nil)

	decision := gate.Review(context.Background(), gateTx(), models.NewMatchResult())

	assert.Equal(t, ActionAutoApply, decision.Action)
	require.True(t, decision.Result.CategoryMatched)
	assert.Equal(t, "Groceries", decision.Result.Category)
	assert.Equal(t, FallbackRuleName, decision.Result.MatchingRuleName)
	assert.Equal(t, 95, decision.Result.Confidence)
	assert.Equal(t, 1, classifier.classifyCalls)
}

func TestUnmatchedFallbackInValidationBandNeedsApproval(t *testing.T) {
	classifier := &stubClassifier{
		classification: []ai.ClassificationResult{
			{TransactionID: "tx-1", Category: "Groceries", Confidence: 75},
		},
	}
	gate := NewGate(ModeSmart, classifier, nil, nil)

	decision := gate.Review(context.Background(), gateTx(), models.NewMatchResult())

	// A fallback result never re-enters validation.
	assert.Equal(t, ActionNeedsApproval, decision.Action)
	assert.Equal(t, 1, classifier.classifyCalls)
	assert.Zero(t, classifier.validateCalls)
}

func TestUnmatchedFallbackFailuresSkip(t *testing.T) {
	testCases := []struct {
		name       string
		classifier *stubClassifier
	}{
		{"request error", &stubClassifier{classificationErr: errors.New("timeout")}},
		{"empty answer", &stubClassifier{}},
		{"blank category", &stubClassifier{classification: []ai.ClassificationResult{{TransactionID: "tx-1"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gate := NewGate(ModeSmart, tc.classifier, nil, nil)
			decision := gate.Review(context.Background(), gateTx(), models.NewMatchResult())
			assert.Equal(t, ActionSkip, decision.Action)
		})
	}
}
