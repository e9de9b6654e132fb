package rules

import (
	"testing"
	"time"

	"fjacquet/ledger-rules/internal/models"

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

func TestCategoryRuleMatches(t *testing.T) {
	testCases := []struct {
		name     string
		rule     CategoryRule
		tx       models.Transaction
		expected bool
	}{
		{
			name:     "pattern substring matches case-insensitively",
			rule:     CategoryRule{Name: "groceries", Patterns: []string{"woolworths"}, Category: "Groceries", Confidence: 95},
			tx:       tx("WOOLWORTHS METRO", -45.50, "Personal"),
			expected: true,
		},
		{
			name:     "no pattern contained",
			rule:     CategoryRule{Name: "groceries", Patterns: []string{"COLES"}, Category: "Groceries", Confidence: 95},
			tx:       tx("WOOLWORTHS METRO", -45.50, "Personal"),
			expected: false,
		},
		{
			name: "exclude pattern vetoes even when a pattern matches",
			rule: CategoryRule{
				Name:            "groceries",
				Patterns:        []string{"WOOLWORTHS"},
				ExcludePatterns: []string{"PETROL"},
				Category:        "Groceries",
				Confidence:      95,
			},
			tx:       tx("WOOLWORTHS PETROL 4311", -80.00, "Personal"),
			expected: false,
		},
		{
			name: "amount predicate compares absolute value",
			rule: CategoryRule{
				Name:       "big-spend",
				Patterns:   []string{"WOOLWORTHS"},
				Category:   "Groceries",
				Confidence: 95,
				Amount:     &AmountPredicate{Operator: OpGreater, Threshold: decimal.NewFromInt(40), Absolute: true},
			},
			tx:       tx("WOOLWORTHS METRO", -45.50, "Personal"),
			expected: true,
		},
		{
			name: "amount predicate fails under threshold",
			rule: CategoryRule{
				Name:       "big-spend",
				Patterns:   []string{"WOOLWORTHS"},
				Category:   "Groceries",
				Confidence: 95,
				Amount:     &AmountPredicate{Operator: OpGreater, Threshold: decimal.NewFromInt(100), Absolute: true},
			},
			tx:       tx("WOOLWORTHS METRO", -45.50, "Personal"),
			expected: false,
		},
		{
			name: "account filter requires membership",
			rule: CategoryRule{
				Name:       "groceries",
				Patterns:   []string{"WOOLWORTHS"},
				Category:   "Groceries",
				Confidence: 95,
				Accounts:   []string{"Business"},
			},
			tx:       tx("WOOLWORTHS METRO", -45.50, "Personal"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transaction := tc.tx
			assert.Equal(t, tc.expected, tc.rule.Matches(&transaction))
		})
	}
}

func TestLabelRuleMatches(t *testing.T) {
	categorized := tx("WOOLWORTHS METRO", -45.50, "Personal")
	categorized.Category = &models.Category{Name: "Food > Groceries"}

	uncategorized := tx("MYSTERY SHOP", -10.00, "Personal")

	testCases := []struct {
		name     string
		rule     LabelRule
		tx       models.Transaction
		expected bool
	}{
		{
			name:     "when_uncategorized matches only transactions without category",
			rule:     LabelRule{Name: "triage", Labels: []string{"Needs Categorization"}, WhenUncategorized: true},
			tx:       uncategorized,
			expected: true,
		},
		{
			name:     "when_uncategorized short-circuits other conditions",
			rule:     LabelRule{Name: "triage", Labels: []string{"Needs Categorization"}, WhenUncategorized: true, WhenAccounts: []string{"Business"}},
			tx:       uncategorized,
			expected: true,
		},
		{
			name:     "when_uncategorized rejects categorized transactions",
			rule:     LabelRule{Name: "triage", Labels: []string{"Needs Categorization"}, WhenUncategorized: true},
			tx:       categorized,
			expected: false,
		},
		{
			name:     "category condition uses substring containment for hierarchies",
			rule:     LabelRule{Name: "food", Labels: []string{"Essential"}, WhenCategories: []string{"Groceries"}},
			tx:       categorized,
			expected: true,
		},
		{
			name:     "account condition is exact",
			rule:     LabelRule{Name: "personal", Labels: []string{"Personal"}, WhenAccounts: []string{"Personal"}},
			tx:       categorized,
			expected: true,
		},
		{
			name: "all present conditions must hold",
			rule: LabelRule{
				Name:           "both",
				Labels:         []string{"X"},
				WhenCategories: []string{"Groceries"},
				WhenAccounts:   []string{"Business"},
			},
			tx:       categorized,
			expected: false,
		},
		{
			name: "amount condition uses the signed amount",
			rule: LabelRule{
				Name:       "outgoing",
				Labels:     []string{"Spend"},
				WhenAmount: &AmountPredicate{Operator: OpLess, Threshold: decimal.Zero},
			},
			tx:       categorized, // amount -45.50, signed comparison passes
			expected: true,
		},
		{
			name: "signed amount condition fails where absolute would pass",
			rule: LabelRule{
				Name:       "big",
				Labels:     []string{"Big"},
				WhenAmount: &AmountPredicate{Operator: OpGreater, Threshold: decimal.NewFromInt(40)},
			},
			tx:       categorized, // -45.50 is not > 40 when signed
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transaction := tc.tx
			assert.Equal(t, tc.expected, tc.rule.Matches(&transaction))
		})
	}
}

func TestAmountPredicateOperators(t *testing.T) {
	amount := decimal.NewFromInt(10)

	testCases := []struct {
		operator  string
		threshold int64
		expected  bool
	}{
		{OpGreater, 5, true},
		{OpGreater, 10, false},
		{OpLess, 15, true},
		{OpGreaterEqual, 10, true},
		{OpLessEqual, 10, true},
		{OpEqual, 10, true},
		{OpEqual, 11, false},
		{OpNotEqual, 11, true},
	}

	for _, tc := range testCases {
		t.Run(tc.operator, func(t *testing.T) {
			p := AmountPredicate{Operator: tc.operator, Threshold: decimal.NewFromInt(tc.threshold)}
			assert.Equal(t, tc.expected, p.Evaluate(amount))
		})
	}
}

func TestRuleSetValidate(t *testing.T) {
	testCases := []struct {
		name    string
		ruleSet RuleSet
		wantErr string
	}{
		{
			name: "valid set",
			ruleSet: RuleSet{
				CategoryRules: []CategoryRule{{Name: "a", Patterns: []string{"X"}, Category: "C", Confidence: 90}},
				LabelRules:    []LabelRule{{Name: "b", Labels: []string{"L"}}},
			},
		},
		{
			name: "category rule without patterns can never match",
			ruleSet: RuleSet{
				CategoryRules: []CategoryRule{{Name: "empty", Category: "C", Confidence: 90}},
			},
			wantErr: "no patterns",
		},
		{
			name: "confidence out of range",
			ruleSet: RuleSet{
				CategoryRules: []CategoryRule{{Name: "hot", Patterns: []string{"X"}, Category: "C", Confidence: 120}},
			},
			wantErr: "must be 0-100",
		},
		{
			name: "unknown amount operator",
			ruleSet: RuleSet{
				CategoryRules: []CategoryRule{{
					Name: "op", Patterns: []string{"X"}, Category: "C", Confidence: 90,
					Amount: &AmountPredicate{Operator: "~=", Threshold: decimal.NewFromInt(1)},
				}},
			},
			wantErr: "unknown amount operator",
		},
		{
			name: "label rule without labels",
			ruleSet: RuleSet{
				LabelRules: []LabelRule{{Name: "bare"}},
			},
			wantErr: "no labels",
		},
		{
			name: "when_uncategorized conflicts with when_categories",
			ruleSet: RuleSet{
				LabelRules: []LabelRule{{
					Name: "conflict", Labels: []string{"L"},
					WhenUncategorized: true, WhenCategories: []string{"C"},
				}},
			},
			wantErr: "when_uncategorized",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ruleSet.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
