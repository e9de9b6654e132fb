// Package engine executes the two-phase rule match: first assign a category
// from the best-scoring category rule, then union the labels of every label
// rule that fires against the categorized view of the transaction.
package engine

import (
	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/models"
	"fjacquet/ledger-rules/internal/rules"
)

// Engine evaluates a loaded rule set against individual transactions. It is
// single-threaded and side-effect-free; the input transaction is never
// mutated.
type Engine struct {
	rules  *rules.RuleSet
	logger logging.Logger
}

// New creates an engine over a validated rule set.
func New(ruleSet *rules.RuleSet, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Engine{
		rules:  ruleSet,
		logger: logger,
	}
}

// CategorizeAndLabel runs both phases against the transaction and returns a
// fresh MatchResult.
//
// Phase 1 selects the single category rule with the highest confidence; ties
// break in declaration order, which keeps categorization reproducible across
// runs for identical rule files. Phase 2 fires every matching label rule:
// labels are additive, the final set is the deduplicated union.
func (e *Engine) CategorizeAndLabel(tx models.Transaction) models.MatchResult {
	result := models.NewMatchResult()

	best := -1
	for i := range e.rules.CategoryRules {
		rule := &e.rules.CategoryRules[i]
		if !rule.Matches(&tx) {
			continue
		}
		// Strict comparison keeps the first-declared rule on equal confidence.
		if best == -1 || rule.Confidence > e.rules.CategoryRules[best].Confidence {
			best = i
		}
	}

	// Label rules see the transaction as it would look after Phase 1.
	view := tx
	if best >= 0 {
		rule := &e.rules.CategoryRules[best]
		result.CategoryMatched = true
		result.Category = rule.Category
		result.MatchingRuleName = rule.Name
		result.Confidence = rule.Confidence
		view.Category = &models.Category{Name: rule.Category}

		e.logger.Debug("Category rule matched",
			logging.Field{Key: "transaction", Value: tx.ID},
			logging.Field{Key: "rule", Value: rule.Name},
			logging.Field{Key: "category", Value: rule.Category},
			logging.Field{Key: "confidence", Value: rule.Confidence})
	}

	seen := make(map[string]bool)
	for i := range e.rules.LabelRules {
		rule := &e.rules.LabelRules[i]
		if !rule.Matches(&view) {
			continue
		}
		result.LabelsMatched = true
		result.MatchingLabelRuleNames = append(result.MatchingLabelRuleNames, rule.Name)
		for _, label := range rule.Labels {
			if !seen[label] {
				seen[label] = true
				result.Labels = append(result.Labels, label)
			}
		}
	}

	return result
}
