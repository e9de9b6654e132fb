package engine

import (
	"testing"
	"time"

	"fjacquet/ledger-rules/internal/models"
	"fjacquet/ledger-rules/internal/rules"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(payee string, amount float64, account string) models.Transaction {
	return models.Transaction{
		ID:          "tx-1",
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Payee:       payee,
		Amount:      decimal.NewFromFloat(amount),
		AccountName: account,
	}
}

func TestCategorizeAndLabelGroceries(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "groceries", Patterns: []string{"WOOLWORTHS", "COLES"}, Category: "Groceries", Confidence: 95},
			{Name: "fuel", Patterns: []string{"PETROL", "SHELL"}, Category: "Transport > Fuel", Confidence: 90},
		},
		LabelRules: []rules.LabelRule{
			{Name: "essential", Labels: []string{"Essential"}, WhenCategories: []string{"Groceries"}},
		},
	}
	e := New(ruleSet, nil)

	result := e.CategorizeAndLabel(tx("WOOLWORTHS METRO 1234", -45.50, "Personal"))

	require.True(t, result.CategoryMatched)
	assert.Equal(t, "Groceries", result.Category)
	assert.Equal(t, "groceries", result.MatchingRuleName)
	assert.Equal(t, 95, result.Confidence)
	assert.Equal(t, models.ConfidenceUnadjusted, result.AdjustedConfidence)
	assert.Equal(t, 95, result.EffectiveConfidence())

	// The label rule fires against the categorized view of the transaction.
	require.True(t, result.LabelsMatched)
	assert.Equal(t, []string{"Essential"}, result.Labels)
	assert.Equal(t, []string{"essential"}, result.MatchingLabelRuleNames)
}

func TestCategorizeHighestConfidenceWins(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "broad", Patterns: []string{"SHOP"}, Category: "Shopping", Confidence: 60},
			{Name: "specific", Patterns: []string{"SHOP"}, Category: "Groceries", Confidence: 90},
		},
	}
	e := New(ruleSet, nil)

	result := e.CategorizeAndLabel(tx("CORNER SHOP", -12.00, "Personal"))

	require.True(t, result.CategoryMatched)
	assert.Equal(t, "Groceries", result.Category)
	assert.Equal(t, "specific", result.MatchingRuleName)
}

func TestCategorizeEqualConfidenceKeepsDeclarationOrder(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "first", Patterns: []string{"SHOP"}, Category: "First", Confidence: 80},
			{Name: "second", Patterns: []string{"SHOP"}, Category: "Second", Confidence: 80},
		},
	}
	e := New(ruleSet, nil)

	for i := 0; i < 10; i++ {
		result := e.CategorizeAndLabel(tx("CORNER SHOP", -12.00, "Personal"))
		require.True(t, result.CategoryMatched)
		assert.Equal(t, "First", result.Category)
		assert.Equal(t, "first", result.MatchingRuleName)
	}
}

func TestCategorizeNoMatch(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "groceries", Patterns: []string{"WOOLWORTHS"}, Category: "Groceries", Confidence: 95},
		},
	}
	e := New(ruleSet, nil)

	result := e.CategorizeAndLabel(tx("UNKNOWN MERCHANT", -5.00, "Personal"))

	assert.False(t, result.CategoryMatched)
	assert.Empty(t, result.Category)
	assert.Zero(t, result.Confidence)
}

func TestUncategorizedTriageLabel(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "groceries", Patterns: []string{"WOOLWORTHS"}, Category: "Groceries", Confidence: 95},
		},
		LabelRules: []rules.LabelRule{
			{Name: "triage", Labels: []string{"Needs Categorization"}, WhenUncategorized: true},
		},
	}
	e := New(ruleSet, nil)

	unmatched := e.CategorizeAndLabel(tx("UNKNOWN MERCHANT", -5.00, "Personal"))
	assert.False(t, unmatched.CategoryMatched)
	assert.Equal(t, []string{"Needs Categorization"}, unmatched.Labels)

	// A transaction that gains a category in Phase 1 must not be triaged.
	matched := e.CategorizeAndLabel(tx("WOOLWORTHS METRO", -45.50, "Personal"))
	assert.True(t, matched.CategoryMatched)
	assert.False(t, matched.LabelsMatched)
	assert.Empty(t, matched.Labels)
}

func TestLabelUnionIsDeduplicated(t *testing.T) {
	ruleSet := &rules.RuleSet{
		LabelRules: []rules.LabelRule{
			{Name: "a", Labels: []string{"Review", "Personal"}, WhenAccounts: []string{"Personal"}},
			{Name: "b", Labels: []string{"Review", "Spend"}, WhenAmount: &rules.AmountPredicate{Operator: rules.OpLess, Threshold: decimal.Zero}},
		},
	}
	e := New(ruleSet, nil)

	result := e.CategorizeAndLabel(tx("ANYTHING", -9.99, "Personal"))

	require.True(t, result.LabelsMatched)
	assert.Equal(t, []string{"Review", "Personal", "Spend"}, result.Labels)
	assert.Equal(t, []string{"a", "b"}, result.MatchingLabelRuleNames)
}

func TestCategorizeDoesNotMutateInput(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "groceries", Patterns: []string{"WOOLWORTHS"}, Category: "Groceries", Confidence: 95},
		},
	}
	e := New(ruleSet, nil)

	transaction := tx("WOOLWORTHS METRO", -45.50, "Personal")
	_ = e.CategorizeAndLabel(transaction)

	assert.Nil(t, transaction.Category)
	assert.Empty(t, transaction.Labels)
}

func TestCategorizeIsIdempotent(t *testing.T) {
	ruleSet := &rules.RuleSet{
		CategoryRules: []rules.CategoryRule{
			{Name: "groceries", Patterns: []string{"WOOLWORTHS"}, Category: "Groceries", Confidence: 95},
		},
		LabelRules: []rules.LabelRule{
			{Name: "essential", Labels: []string{"Essential"}, WhenCategories: []string{"Groceries"}},
		},
	}
	e := New(ruleSet, nil)
	transaction := tx("WOOLWORTHS METRO", -45.50, "Personal")

	first := e.CategorizeAndLabel(transaction)
	second := e.CategorizeAndLabel(transaction)

	assert.Equal(t, first, second)
}
