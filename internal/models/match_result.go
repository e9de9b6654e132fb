package models

// ConfidenceUnadjusted marks a MatchResult whose confidence has not been
// revised by the validation capability.
const ConfidenceUnadjusted = -1

// MatchResult is the transient outcome of running both rule phases against a
// single transaction. It is created fresh per transaction and consumed by the
// confidence gate; it is never persisted.
type MatchResult struct {
	CategoryMatched  bool
	Category         string
	MatchingRuleName string

	// Confidence is the rule-derived confidence. AdjustedConfidence is set
	// only when the validation capability revised it; the original is always
	// kept for auditability.
	Confidence         int
	AdjustedConfidence int

	LabelsMatched          bool
	Labels                 []string
	MatchingLabelRuleNames []string
}

// NewMatchResult returns an empty result with the adjusted confidence unset.
func NewMatchResult() MatchResult {
	return MatchResult{AdjustedConfidence: ConfidenceUnadjusted}
}

// EffectiveConfidence returns the LLM-adjusted confidence when present and
// the rule-derived confidence otherwise.
func (r MatchResult) EffectiveConfidence() int {
	if r.AdjustedConfidence != ConfidenceUnadjusted {
		return r.AdjustedConfidence
	}
	return r.Confidence
}
