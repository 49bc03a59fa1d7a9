// Package scorer computes the composite listing score for a candidate.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relist-cli/internal/thresholds"
)

// Weights is the scoring slice of a threshold snapshot.
type Weights struct {
	Base float64

	SellerAmazon     float64
	SellerOfficial   float64
	SellerThirdParty float64
	SellerUnknown    float64

	SuperFastHours float64
	FastHours      float64
	StandardHours  float64
	SuperFastBonus float64
	FastBonus      float64
	StandardBonus  float64

	RelevanceWeight   float64
	RelevanceMaxBonus float64
	BrandBonus        float64
}

// WeightsFrom reads scoring weights from snap, falling back to the
// balanced defaults for any missing key.
func WeightsFrom(snap thresholds.Snapshot) Weights {
	return weightsFrom(snap, DefaultWeights())
}

// DefaultWeights returns the weights of the balanced baseline.
func DefaultWeights() Weights {
	return weightsFrom(thresholds.DefaultSnapshot(), Weights{})
}

func weightsFrom(snap thresholds.Snapshot, d Weights) Weights {
	sc, fc := thresholds.CatScoring, thresholds.CatFulfillment
	return Weights{
		Base:              snap.Float(sc, thresholds.KeyBaseScore, d.Base),
		SellerAmazon:      snap.Float(sc, thresholds.KeySellerAmazon, d.SellerAmazon),
		SellerOfficial:    snap.Float(sc, thresholds.KeySellerOfficial, d.SellerOfficial),
		SellerThirdParty:  snap.Float(sc, thresholds.KeySellerThirdParty, d.SellerThirdParty),
		SellerUnknown:     snap.Float(sc, thresholds.KeySellerUnknown, d.SellerUnknown),
		SuperFastHours:    snap.Float(fc, thresholds.KeySuperFastHours, d.SuperFastHours),
		FastHours:         snap.Float(fc, thresholds.KeyFastHours, d.FastHours),
		StandardHours:     snap.Float(fc, thresholds.KeyStandardHours, d.StandardHours),
		SuperFastBonus:    snap.Float(sc, thresholds.KeySuperFastBonus, d.SuperFastBonus),
		FastBonus:         snap.Float(sc, thresholds.KeyFastBonus, d.FastBonus),
		StandardBonus:     snap.Float(sc, thresholds.KeyStandardBonus, d.StandardBonus),
		RelevanceWeight:   snap.Float(sc, thresholds.KeyRelevanceWeight, d.RelevanceWeight),
		RelevanceMaxBonus: snap.Float(sc, thresholds.KeyRelevanceMaxBonus, d.RelevanceMaxBonus),
		BrandBonus:        snap.Float(sc, thresholds.KeyBrandBonus, d.BrandBonus),
	}
}

// Validate checks that w is internally consistent: the seller table keeps
// its trust ordering, hour tiers ascend, and tier bonuses descend.
func Validate(w Weights) error {
	var errs []string

	all := map[string]float64{
		"base_score":          w.Base,
		"relevance_weight":    w.RelevanceWeight,
		"relevance_max_bonus": w.RelevanceMaxBonus,
		"brand_bonus":         w.BrandBonus,
		"super_fast_hours":    w.SuperFastHours,
		"fast_hours":          w.FastHours,
		"standard_hours":      w.StandardHours,
	}
	for name, v := range all {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", name))
		} else if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if w.Base > 100 {
		errs = append(errs, "base_score must be <= 100")
	}
	if !(w.SellerAmazon >= w.SellerOfficial && w.SellerOfficial >= w.SellerThirdParty && w.SellerThirdParty >= w.SellerUnknown) {
		errs = append(errs, "seller contributions must be ordered amazon >= official_manufacturer >= third_party >= unknown")
	}
	if !(w.SuperFastHours <= w.FastHours && w.FastHours <= w.StandardHours) {
		errs = append(errs, "fulfillment hours must ascend super_fast <= fast <= standard")
	}
	if !(w.SuperFastBonus >= w.FastBonus && w.FastBonus >= w.StandardBonus) {
		errs = append(errs, "fulfillment bonuses must descend super_fast >= fast >= standard")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateSnapshot validates the weights read from snap. It has the shape
// of a thresholds.Validator so a store can refuse inconsistent updates.
func ValidateSnapshot(snap thresholds.Snapshot) error {
	return Validate(WeightsFrom(snap))
}
