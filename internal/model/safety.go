package model

// RiskLevel grades a safety verdict.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity orders risk levels from safe (0) to high (3).
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// RiskLevels returns every level, safest first.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskSafe, RiskLow, RiskMedium, RiskHigh}
}

// SafetyAction is the enforcement derived from a risk level.
type SafetyAction string

const (
	ActionAllow     SafetyAction = "allow"
	ActionWarn      SafetyAction = "warn"
	ActionDowngrade SafetyAction = "downgrade"
	ActionExclude   SafetyAction = "exclude"
)

// ParseSafetyAction returns the action named by s, or ok=false.
func ParseSafetyAction(s string) (SafetyAction, bool) {
	switch a := SafetyAction(s); a {
	case ActionAllow, ActionWarn, ActionDowngrade, ActionExclude:
		return a, true
	}
	return "", false
}

// SafetyVerdict is the outcome of scanning free text against the banned-term
// dictionary.
type SafetyVerdict struct {
	IsFlagged         bool         `json:"is_flagged"`
	MatchedTerms      []string     `json:"matched_terms,omitempty"`
	MatchedCategories []string     `json:"matched_categories,omitempty"`
	PrimaryCategory   string       `json:"primary_category,omitempty"`
	RiskLevel         RiskLevel    `json:"risk_level"`
	Action            SafetyAction `json:"action"`
}

// SafeVerdict is the verdict for text with no matches.
func SafeVerdict() SafetyVerdict {
	return SafetyVerdict{RiskLevel: RiskSafe, Action: ActionAllow}
}
