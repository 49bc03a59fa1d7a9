// Package thresholds implements the versioned, persisted store of every
// tunable threshold and weight used by scoring and classification.
package thresholds

// SchemaVersion is the layout version of the persisted document. Documents
// written under another version are migrated on load.
const SchemaVersion = "2.0"

// Categories.
const (
	CatScoring        = "scoring"
	CatFulfillment    = "fulfillment"
	CatClassification = "classification"
	CatSafety         = "safety"
)

// Scoring keys.
const (
	KeyBaseScore         = "base_score"
	KeySellerAmazon      = "seller_amazon"
	KeySellerOfficial    = "seller_official_manufacturer"
	KeySellerThirdParty  = "seller_third_party"
	KeySellerUnknown     = "seller_unknown"
	KeySuperFastBonus    = "fulfillment_super_fast_bonus"
	KeyFastBonus         = "fulfillment_fast_bonus"
	KeyStandardBonus     = "fulfillment_standard_bonus"
	KeyRelevanceWeight   = "relevance_weight"
	KeyRelevanceMaxBonus = "relevance_max_bonus"
	KeyBrandBonus        = "brand_bonus"
)

// Fulfillment keys.
const (
	KeySuperFastHours = "super_fast_hours"
	KeyFastHours      = "fast_hours"
	KeyStandardHours  = "standard_hours"
)

// Classification keys.
const (
	KeyGroupAThreshold       = "group_a_threshold"
	KeyGroupBThreshold       = "group_b_threshold"
	KeyLowRelevanceThreshold = "low_relevance_threshold"
)

// Safety keys map a risk level to an enforcement action.
const (
	KeyActionHigh   = "action_high"
	KeyActionMedium = "action_medium"
	KeyActionLow    = "action_low"
	KeyActionSafe   = "action_safe"
)

// Preset names.
const (
	PresetConservative = "conservative"
	PresetBalanced     = "balanced"
	PresetAggressive   = "aggressive"
)

// Presets lists every preset, loosest first.
func Presets() []string {
	return []string{PresetAggressive, PresetBalanced, PresetConservative}
}

// Path addresses one threshold.
type Path struct {
	Category string
	Key      string
}

func (p Path) String() string {
	return p.Category + "." + p.Key
}

// ComparableThresholds are the thresholds that must satisfy
// aggressive <= balanced <= conservative.
func ComparableThresholds() []Path {
	return []Path{
		{CatClassification, KeyGroupAThreshold},
		{CatClassification, KeyGroupBThreshold},
		{CatClassification, KeyLowRelevanceThreshold},
		{CatFulfillment, KeySuperFastHours},
		{CatFulfillment, KeyFastHours},
		{CatFulfillment, KeyStandardHours},
	}
}

// DefaultValues returns the "balanced" baseline. Numbers are float64 so a
// value read back from JSON compares equal to its default.
func DefaultValues() Values {
	return Values{
		CatScoring: {
			KeyBaseScore:         50.0,
			KeySellerAmazon:      20.0,
			KeySellerOfficial:    15.0,
			KeySellerThirdParty:  5.0,
			KeySellerUnknown:     0.0,
			KeySuperFastBonus:    15.0,
			KeyFastBonus:         10.0,
			KeyStandardBonus:     5.0,
			KeyRelevanceWeight:   0.2,
			KeyRelevanceMaxBonus: 15.0,
			KeyBrandBonus:        5.0,
		},
		CatFulfillment: {
			KeySuperFastHours: 24.0,
			KeyFastHours:      48.0,
			KeyStandardHours:  72.0,
		},
		CatClassification: {
			KeyGroupAThreshold:       70.0,
			KeyGroupBThreshold:       65.0,
			KeyLowRelevanceThreshold: 30.0,
		},
		CatSafety: {
			KeyActionHigh:   "exclude",
			KeyActionMedium: "downgrade",
			KeyActionLow:    "warn",
			KeyActionSafe:   "allow",
		},
	}
}

// presetOverrides hold the per-preset deltas applied on top of the baseline.
var presetOverrides = map[string]Values{
	PresetConservative: {
		CatClassification: {
			KeyGroupAThreshold:       80.0,
			KeyGroupBThreshold:       75.0,
			KeyLowRelevanceThreshold: 45.0,
		},
	},
	PresetBalanced: {},
	PresetAggressive: {
		CatClassification: {
			KeyGroupAThreshold:       60.0,
			KeyGroupBThreshold:       55.0,
			KeyLowRelevanceThreshold: 20.0,
		},
	},
}

// PresetValues returns the full value set for a preset, or ok=false for an
// unknown name.
func PresetValues(name string) (Values, bool) {
	over, ok := presetOverrides[name]
	if !ok {
		return nil, false
	}
	return mergeValues(DefaultValues(), over), true
}
