// Package intelligence implements the confidence-gated decision policy that
// decides, per match, whether to apply a result automatically, ask a human,
// consult the language model, or skip.
package intelligence

import "fmt"

// Mode is the active confidence policy.
type Mode string

const (
	// ModeConservative routes every match to human approval.
	ModeConservative Mode = "conservative"
	// ModeSmart auto-applies at >=90, validates with the LLM in [70,90).
	ModeSmart Mode = "smart"
	// ModeAggressive auto-applies at >=80, validates with the LLM in [50,80).
	ModeAggressive Mode = "aggressive"
)

// Action is the gate's verdict for one match.
type Action string

const (
	ActionAutoApply          Action = "auto_apply"
	ActionNeedsApproval      Action = "needs_approval"
	ActionNeedsLLMValidation Action = "needs_llm_validation"
	ActionSkip               Action = "skip"
)

// ParseMode validates a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeConservative, ModeSmart, ModeAggressive:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown intelligence mode %q", s)
}

// Decide maps a confidence value to an action under this mode. It is total:
// every confidence yields exactly one action.
func (m Mode) Decide(confidence int) Action {
	switch m {
	case ModeSmart:
		switch {
		case confidence >= 90:
			return ActionAutoApply
		case confidence >= 70:
			return ActionNeedsLLMValidation
		default:
			return ActionSkip
		}
	case ModeAggressive:
		switch {
		case confidence >= 80:
			return ActionAutoApply
		case confidence >= 50:
			return ActionNeedsLLMValidation
		default:
			return ActionSkip
		}
	default:
		// Conservative never applies anything on its own.
		return ActionNeedsApproval
	}
}
