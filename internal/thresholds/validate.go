package thresholds

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relist-cli/internal/model"
)

// Validator checks a candidate configuration before it is persisted.
type Validator func(Snapshot) error

// WithValidator adds a check every mutation must pass. The built-in type
// checks always run first.
func WithValidator(fn Validator) Option {
	return func(s *Store) { s.validators = append(s.validators, fn) }
}

// numericKeys are the known keys whose values must be finite numbers.
var numericKeys = map[string][]string{
	CatScoring: {
		KeyBaseScore, KeySellerAmazon, KeySellerOfficial, KeySellerThirdParty, KeySellerUnknown,
		KeySuperFastBonus, KeyFastBonus, KeyStandardBonus,
		KeyRelevanceWeight, KeyRelevanceMaxBonus, KeyBrandBonus,
	},
	CatFulfillment:    {KeySuperFastHours, KeyFastHours, KeyStandardHours},
	CatClassification: {KeyGroupAThreshold, KeyGroupBThreshold, KeyLowRelevanceThreshold},
}

var actionKeys = []string{KeyActionHigh, KeyActionMedium, KeyActionLow, KeyActionSafe}

// checkValues reports type errors on the known keys of v: numeric keys must
// hold finite numbers and safety keys must name an enforcement action.
// Unknown categories and keys are not checked.
func checkValues(v Values) error {
	var errs []string
	for cat, keys := range numericKeys {
		for _, k := range keys {
			raw, ok := v.lookup(cat, k)
			if !ok {
				continue
			}
			f, isNum := normalizeValue(raw).(float64)
			switch {
			case !isNum:
				errs = append(errs, Path{cat, k}.String()+" must be a number")
			case math.IsNaN(f) || math.IsInf(f, 0):
				errs = append(errs, Path{cat, k}.String()+" must be finite")
			}
		}
	}
	for _, k := range actionKeys {
		raw, ok := v.lookup(CatSafety, k)
		if !ok {
			continue
		}
		s, _ := raw.(string)
		if _, ok := model.ParseSafetyAction(s); !ok {
			errs = append(errs, Path{CatSafety, k}.String()+" must be one of allow, warn, downgrade, exclude")
		}
	}
	if len(errs) == 0 {
		snap := NewSnapshot(v)
		ga := snap.Float(CatClassification, KeyGroupAThreshold, 0)
		gb := snap.Float(CatClassification, KeyGroupBThreshold, 0)
		if gb > ga {
			errs = append(errs, "classification.group_b_threshold must be <= group_a_threshold")
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return eris.Errorf("thresholds: invalid values: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validate runs the built-in checks and every registered validator.
func (s *Store) validate(v Values) error {
	if err := checkValues(v); err != nil {
		return err
	}
	snap := NewSnapshot(v)
	for _, fn := range s.validators {
		if err := fn(snap); err != nil {
			return eris.Wrap(err, "thresholds: rejected by validator")
		}
	}
	return nil
}
