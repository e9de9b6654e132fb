// Package rules defines the declarative category and label rules and their
// match predicates. Rules are immutable once loaded; all validation happens
// eagerly at load time so the engine never sees a malformed rule.
package rules

import (
	"fmt"
	"strings"

	"fjacquet/ledger-rules/internal/models"

	"github.com/shopspring/decimal"
)

// Comparison operators accepted by amount predicates.
const (
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
	OpEqual        = "=="
	OpNotEqual     = "!="
)

// AmountPredicate compares a transaction amount against a threshold.
// Absolute controls whether the comparison uses abs(amount) or the signed
// amount: category rules compare absolute values, label rules compare signed
// values. The asymmetry is deliberate and carried as an explicit flag so it
// shows up in rule dumps and tests.
type AmountPredicate struct {
	Operator  string          `yaml:"operator"`
	Threshold decimal.Decimal `yaml:"threshold"`
	Absolute  bool            `yaml:"-"`
}

// Evaluate applies the predicate to the given signed amount.
func (p *AmountPredicate) Evaluate(amount decimal.Decimal) bool {
	value := amount
	if p.Absolute {
		value = amount.Abs()
	}
	switch p.Operator {
	case OpGreater:
		return value.GreaterThan(p.Threshold)
	case OpLess:
		return value.LessThan(p.Threshold)
	case OpGreaterEqual:
		return value.GreaterThanOrEqual(p.Threshold)
	case OpLessEqual:
		return value.LessThanOrEqual(p.Threshold)
	case OpEqual:
		return value.Equal(p.Threshold)
	case OpNotEqual:
		return !value.Equal(p.Threshold)
	}
	// Unknown operators are rejected at load time.
	return false
}

func (p *AmountPredicate) validate() error {
	switch p.Operator {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual:
		return nil
	}
	return fmt.Errorf("unknown amount operator %q", p.Operator)
}

// CategoryRule assigns a category to transactions whose payee contains one of
// the patterns. Patterns are OR-combined; any exclude pattern vetoes the rule.
type CategoryRule struct {
	Name            string           `yaml:"name"`
	Patterns        []string         `yaml:"patterns"`
	ExcludePatterns []string         `yaml:"exclude_patterns,omitempty"`
	Category        string           `yaml:"category"`
	Confidence      int              `yaml:"confidence"`
	Amount          *AmountPredicate `yaml:"amount,omitempty"`
	Accounts        []string         `yaml:"accounts,omitempty"`
}

// Matches reports whether the rule applies to the transaction.
func (r *CategoryRule) Matches(tx *models.Transaction) bool {
	payee := strings.ToUpper(tx.Payee)

	matched := false
	for _, pattern := range r.Patterns {
		if strings.Contains(payee, strings.ToUpper(pattern)) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, pattern := range r.ExcludePatterns {
		if strings.Contains(payee, strings.ToUpper(pattern)) {
			return false
		}
	}

	if r.Amount != nil && !r.Amount.Evaluate(tx.Amount) {
		return false
	}

	if len(r.Accounts) > 0 {
		found := false
		for _, account := range r.Accounts {
			if tx.AccountName == account {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func (r *CategoryRule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("category rule has no name")
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("category rule %q has no patterns", r.Name)
	}
	if r.Category == "" {
		return fmt.Errorf("category rule %q has no target category", r.Name)
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("category rule %q has confidence %d, must be 0-100", r.Name, r.Confidence)
	}
	if r.Amount != nil {
		if err := r.Amount.validate(); err != nil {
			return fmt.Errorf("category rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// LabelRule adds labels to transactions matching a conjunctive when-clause.
// WhenUncategorized short-circuits every other condition: when set, the rule
// matches exactly the transactions that carry no category.
type LabelRule struct {
	Name              string           `yaml:"name"`
	Labels            []string         `yaml:"labels"`
	WhenCategories    []string         `yaml:"when_categories,omitempty"`
	WhenAccounts      []string         `yaml:"when_accounts,omitempty"`
	WhenAmount        *AmountPredicate `yaml:"when_amount,omitempty"`
	WhenUncategorized bool             `yaml:"when_uncategorized,omitempty"`
}

// Matches reports whether the rule applies to the transaction. The category
// comparison uses substring containment so hierarchical titles like
// "Parent > Child" match a rule written against the child name.
func (r *LabelRule) Matches(tx *models.Transaction) bool {
	if r.WhenUncategorized {
		return !tx.HasCategory()
	}

	if len(r.WhenCategories) > 0 {
		title := strings.ToUpper(tx.CategoryName())
		found := false
		for _, want := range r.WhenCategories {
			if strings.Contains(title, strings.ToUpper(want)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(r.WhenAccounts) > 0 {
		found := false
		for _, account := range r.WhenAccounts {
			if tx.AccountName == account {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if r.WhenAmount != nil && !r.WhenAmount.Evaluate(tx.Amount) {
		return false
	}

	return true
}

func (r *LabelRule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("label rule has no name")
	}
	if len(r.Labels) == 0 {
		return fmt.Errorf("label rule %q has no labels", r.Name)
	}
	if r.WhenUncategorized && len(r.WhenCategories) > 0 {
		return fmt.Errorf("label rule %q sets both when_uncategorized and when_categories", r.Name)
	}
	if r.WhenAmount != nil {
		if err := r.WhenAmount.validate(); err != nil {
			return fmt.Errorf("label rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// RuleSet holds all loaded rules in declaration order. Declaration order is
// the tie-breaker for equal-confidence category matches, so it must be
// preserved exactly as the file states it.
type RuleSet struct {
	CategoryRules []CategoryRule `yaml:"category_rules"`
	LabelRules    []LabelRule    `yaml:"label_rules"`
}

// Validate checks every rule in the set and fails on the first malformed one.
// A set that fails validation must not be used: partial rule sets produce
// silently wrong categorizations.
func (rs *RuleSet) Validate() error {
	for i := range rs.CategoryRules {
		if err := rs.CategoryRules[i].validate(); err != nil {
			return err
		}
	}
	for i := range rs.LabelRules {
		if err := rs.LabelRules[i].validate(); err != nil {
			return err
		}
	}
	return nil
}
