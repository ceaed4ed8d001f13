package enums

import "fmt"

// ValidationDecision is an admin's verdict on a pending design.
type ValidationDecision string

const (
	ValidationDecisionApprove ValidationDecision = "approve"
	ValidationDecisionReject  ValidationDecision = "reject"
)

var validValidationDecisions = []ValidationDecision{
	ValidationDecisionApprove,
	ValidationDecisionReject,
}

// String returns the literal string for the decision.
func (v ValidationDecision) String() string {
	return string(v)
}

// IsValid reports whether the decision is known.
func (v ValidationDecision) IsValid() bool {
	for _, candidate := range validValidationDecisions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseValidationDecision converts raw input into a ValidationDecision.
func ParseValidationDecision(value string) (ValidationDecision, error) {
	for _, candidate := range validValidationDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid validation decision %q", value)
}
