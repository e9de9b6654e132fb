package intelligence

import (
	"context"

	"fjacquet/ledger-rules/internal/ai"
	"fjacquet/ledger-rules/internal/logging"
	"fjacquet/ledger-rules/internal/models"
)

// FallbackRuleName marks results produced by the classification fallback
// rather than a declarative rule.
const FallbackRuleName = "llm-fallback"

// Classifier is the slice of the AI adapter the gate needs.
type Classifier interface {
	ClassifyTransactions(ctx context.Context, txs []models.Transaction, availableCategories []string) ([]ai.ClassificationResult, error)
	ValidateClassification(ctx context.Context, tx models.Transaction, suggestedCategory string, ruleConfidence int) (ai.ValidationResult, error)
}

// Decision is the gate's verdict together with the possibly revised result.
type Decision struct {
	Action    Action
	Result    models.MatchResult
	Reasoning string
}

// Gate applies the active mode's thresholds to engine results, consulting the
// classifier for medium-confidence validation and no-match fallback.
type Gate struct {
	mode       Mode
	classifier Classifier
	categories []string
	logger     logging.Logger
}

// NewGate creates a gate. The classifier may be nil, in which case validation
// degrades to approval and the fallback path degrades to skip.
func NewGate(mode Mode, classifier Classifier, availableCategories []string, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Gate{
		mode:       mode,
		classifier: classifier,
		categories: availableCategories,
		logger:     logger,
	}
}

// Mode returns the gate's active mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// Review decides what to do with an engine result. The returned decision
// carries a new MatchResult: the input is never mutated, and both the
// rule-derived and any LLM-adjusted confidence are kept.
func (g *Gate) Review(ctx context.Context, tx models.Transaction, result models.MatchResult) Decision {
	if !result.CategoryMatched {
		return g.reviewUnmatched(ctx, tx, result)
	}

	action := g.mode.Decide(result.Confidence)
	if action != ActionNeedsLLMValidation {
		return Decision{Action: action, Result: result}
	}

	return g.validate(ctx, tx, result)
}

// validate runs the medium-confidence validation exchange.
func (g *Gate) validate(ctx context.Context, tx models.Transaction, result models.MatchResult) Decision {
	if g.classifier == nil {
		return Decision{
			Action:    ActionNeedsApproval,
			Result:    result,
			Reasoning: "validation unavailable",
		}
	}

	validation, err := g.classifier.ValidateClassification(ctx, tx, result.Category, result.Confidence)
	if err != nil {
		g.logger.WithError(err).Warn("Validation request failed",
			logging.Field{Key: "transaction", Value: tx.ID})
		return Decision{
			Action:    ActionNeedsApproval,
			Result:    result,
			Reasoning: "validation failed",
		}
	}

	switch validation.Validation {
	case ai.ValidationConfirm:
		confirmed := result
		confirmed.AdjustedConfidence = validation.Confidence
		if confirmed.AdjustedConfidence < result.Confidence {
			confirmed.AdjustedConfidence = result.Confidence
		}
		return Decision{
			Action:    ActionAutoApply,
			Result:    confirmed,
			Reasoning: validation.Reasoning,
		}

	case ai.ValidationReject:
		// The category and effective confidence come from the model; the
		// rule-derived confidence stays on the result for the audit trail.
		rejected := result
		rejected.Category = validation.Category
		rejected.AdjustedConfidence = validation.Confidence
		action := g.mode.Decide(rejected.AdjustedConfidence)
		if action == ActionNeedsLLMValidation {
			// The model cannot confirm its own substitution.
			action = ActionNeedsApproval
		}
		return Decision{
			Action:    action,
			Result:    rejected,
			Reasoning: validation.Reasoning,
		}

	default:
		return Decision{
			Action:    ActionNeedsApproval,
			Result:    result,
			Reasoning: "validation inconclusive",
		}
	}
}

// reviewUnmatched runs the classification fallback for transactions no rule
// matched. The fallback result re-enters the gate once with the model's own
// confidence; a validation verdict at that point degrades to approval so the
// model never validates itself.
func (g *Gate) reviewUnmatched(ctx context.Context, tx models.Transaction, result models.MatchResult) Decision {
	if g.classifier == nil {
		return Decision{Action: ActionSkip, Result: result, Reasoning: "no rule matched"}
	}

	classified, err := g.classifier.ClassifyTransactions(ctx, []models.Transaction{tx}, g.categories)
	if err != nil {
		g.logger.WithError(err).Warn("Fallback classification failed",
			logging.Field{Key: "transaction", Value: tx.ID})
		return Decision{Action: ActionSkip, Result: result, Reasoning: "classification failed"}
	}
	if len(classified) == 0 || classified[0].Category == "" {
		return Decision{Action: ActionSkip, Result: result, Reasoning: "classification empty"}
	}

	fallback := result
	fallback.CategoryMatched = true
	fallback.Category = classified[0].Category
	fallback.Confidence = classified[0].Confidence
	fallback.MatchingRuleName = FallbackRuleName

	action := g.mode.Decide(fallback.Confidence)
	if action == ActionNeedsLLMValidation {
		action = ActionNeedsApproval
	}
	return Decision{
		Action:    action,
		Result:    fallback,
		Reasoning: classified[0].Reasoning,
	}
}
