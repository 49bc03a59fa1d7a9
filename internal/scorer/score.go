package scorer

import (
	"math"
	"strings"

	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// Breakdown labels.
const (
	LabelBase      = "base"
	LabelRelevance = "relevance"
	LabelBrand     = "brand"
	LabelClip      = "clip"
)

// Fulfillment tiers.
const (
	FulfillmentSuperFast = "super_fast"
	FulfillmentFast      = "fast"
	FulfillmentStandard  = "standard"
	FulfillmentSlow      = "slow"
	FulfillmentUnknown   = "unknown"
)

// Result is a composite score with the itemised contributions that sum to
// it.
type Result struct {
	Value     float64               `json:"value"`
	Breakdown []model.BreakdownItem `json:"breakdown"`
}

// Score computes the composite score of rec under snap. It is a pure
// function: no I/O, no randomness, and the value is always within [0,100].
func Score(rec *model.CandidateRecord, snap thresholds.Snapshot) Result {
	return Compute(rec, WeightsFrom(snap))
}

// Compute scores rec with explicit weights.
func Compute(rec *model.CandidateRecord, w Weights) Result {
	items := make([]model.BreakdownItem, 0, 6)
	add := func(label string, v float64) {
		items = append(items, model.BreakdownItem{Label: label, Contribution: round2(finite(v))})
	}

	add(LabelBase, w.Base)

	seller := rec.SellerType
	if !seller.Valid() {
		seller = model.SellerUnknown
	}
	add("seller:"+string(seller), sellerContribution(seller, w))

	tier, bonus := fulfillmentTier(rec.FulfillmentHours, w)
	add("fulfillment:"+tier, bonus)

	add(LabelRelevance, relevanceContribution(rec.RelevanceScore, w))

	brand := 0.0
	if strings.TrimSpace(rec.ExtractedBrand) != "" {
		brand = w.BrandBonus
	}
	add(LabelBrand, brand)

	var raw float64
	for _, it := range items {
		raw += it.Contribution
	}
	total := math.Min(100, math.Max(0, raw))
	if total != raw {
		items = append(items, model.BreakdownItem{Label: LabelClip, Contribution: round2(total - raw)})
	}

	return Result{Value: round2(total), Breakdown: items}
}

func sellerContribution(s model.SellerType, w Weights) float64 {
	switch s {
	case model.SellerAmazon:
		return w.SellerAmazon
	case model.SellerOfficial:
		return w.SellerOfficial
	case model.SellerThirdParty:
		return w.SellerThirdParty
	default:
		return w.SellerUnknown
	}
}

// fulfillmentTier maps hours onto a speed tier. Boundaries are inclusive:
// exactly fast_hours is "fast". Unknown or invalid hours earn nothing.
func fulfillmentTier(hours *float64, w Weights) (string, float64) {
	if hours == nil || math.IsNaN(*hours) || *hours < 0 {
		return FulfillmentUnknown, 0
	}
	h := *hours
	switch {
	case h <= w.SuperFastHours:
		return FulfillmentSuperFast, w.SuperFastBonus
	case h <= w.FastHours:
		return FulfillmentFast, w.FastBonus
	case h <= w.StandardHours:
		return FulfillmentStandard, w.StandardBonus
	default:
		return FulfillmentSlow, 0
	}
}

// relevanceContribution is proportional to relevance and capped.
func relevanceContribution(relevance float64, w Weights) float64 {
	if math.IsNaN(relevance) {
		return 0
	}
	r := math.Min(100, math.Max(0, relevance))
	return math.Min(r*w.RelevanceWeight, w.RelevanceMaxBonus)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
