package safety

import (
	"sort"

	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// categoryRisk is the fixed severity table. Matched categories not listed
// here are low risk.
var categoryRisk = map[string]model.RiskLevel{
	CategoryProhibited:    model.RiskHigh,
	CategoryMedical:       model.RiskHigh,
	CategoryHazardous:     model.RiskHigh,
	CategoryAgeRestricted: model.RiskMedium,
	CategoryCopyright:     model.RiskMedium,
}

// RiskOf returns the severity of a matched category.
func RiskOf(category string) model.RiskLevel {
	if r, ok := categoryRisk[CategoryKey(category)]; ok {
		return r
	}
	return model.RiskLow
}

var defaultActions = map[model.RiskLevel]model.SafetyAction{
	model.RiskHigh:   model.ActionExclude,
	model.RiskMedium: model.ActionDowngrade,
	model.RiskLow:    model.ActionWarn,
	model.RiskSafe:   model.ActionAllow,
}

var actionKeys = map[model.RiskLevel]string{
	model.RiskHigh:   thresholds.KeyActionHigh,
	model.RiskMedium: thresholds.KeyActionMedium,
	model.RiskLow:    thresholds.KeyActionLow,
	model.RiskSafe:   thresholds.KeyActionSafe,
}

// ActionFor maps a risk level to its enforcement action using the safety
// section of snap. Missing or unrecognised values use the default mapping.
func ActionFor(risk model.RiskLevel, snap thresholds.Snapshot) model.SafetyAction {
	def, ok := defaultActions[risk]
	if !ok {
		risk, def = model.RiskSafe, model.ActionAllow
	}
	v := snap.String(thresholds.CatSafety, actionKeys[risk], string(def))
	if a, ok := model.ParseSafetyAction(v); ok {
		return a
	}
	return def
}

// Evaluate scans text against dict and returns the verdict. Every matched
// term and category is reported. The primary category is the most severe
// one, ties broken alphabetically.
func Evaluate(text string, dict Dictionary, snap thresholds.Snapshot) model.SafetyVerdict {
	matches := dict.Match(text)
	if len(matches) == 0 {
		return model.SafetyVerdict{RiskLevel: model.RiskSafe, Action: ActionFor(model.RiskSafe, snap)}
	}

	terms := make(map[string]bool)
	cats := make(map[string]bool)
	for _, m := range matches {
		terms[m.Term] = true
		cats[m.Category] = true
	}

	v := model.SafetyVerdict{
		IsFlagged:         true,
		MatchedTerms:      sortedKeys(terms),
		MatchedCategories: sortedKeys(cats),
		RiskLevel:         model.RiskSafe,
	}
	for _, c := range v.MatchedCategories {
		if r := RiskOf(c); r.Severity() > v.RiskLevel.Severity() {
			v.RiskLevel = r
			v.PrimaryCategory = c
		}
	}
	v.Action = ActionFor(v.RiskLevel, snap)
	return v
}

// EvaluateRecord scans the title and brand of rec.
func EvaluateRecord(rec *model.CandidateRecord, dict Dictionary, snap thresholds.Snapshot) model.SafetyVerdict {
	return Evaluate(rec.SafetyText(), dict, snap)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
