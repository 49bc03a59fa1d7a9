// Package classify assigns each scored candidate to a terminal priority
// tier.
package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relist-cli/internal/fault"
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// Reason codes.
const (
	CodeGroupA         = "group-a"
	CodeGroupB         = "group-b"
	CodeGroupC         = "group-c"
	CodeBelowThreshold = "below-threshold"
	CodeNoIdentifier   = "no-identifier"
	CodeInvalidInput   = "invalid-input"
	CodeSafetyPrefix   = "safety:"
	CodeApproved       = "override-approved"
	CodeRejected       = "override-rejected"

	DowngradeSuffix = "(safety-downgraded)"
)

// Limits are the classification thresholds of a snapshot.
type Limits struct {
	GroupA       float64
	GroupB       float64
	LowRelevance float64
	FastHours    float64
}

// LimitsFrom reads classification thresholds from snap.
func LimitsFrom(snap thresholds.Snapshot) Limits {
	def := thresholds.DefaultSnapshot()
	get := func(cat, key string) float64 {
		return snap.Float(cat, key, def.Float(cat, key, 0))
	}
	return Limits{
		GroupA:       get(thresholds.CatClassification, thresholds.KeyGroupAThreshold),
		GroupB:       get(thresholds.CatClassification, thresholds.KeyGroupBThreshold),
		LowRelevance: get(thresholds.CatClassification, thresholds.KeyLowRelevanceThreshold),
		FastHours:    get(thresholds.CatFulfillment, thresholds.KeyFastHours),
	}
}

// Classify resolves the tier of rec, which must already carry its score.
// It is total: every input yields A, B, C or X and per-record problems are
// encoded as tier X, never returned as errors.
func Classify(rec *model.CandidateRecord, verdict model.SafetyVerdict, snap thresholds.Snapshot) model.Classification {
	return Rules(rec, verdict, LimitsFrom(snap))
}

// Rules applies the tier rules with explicit limits.
func Rules(rec *model.CandidateRecord, verdict model.SafetyVerdict, lim Limits) model.Classification {
	if problems := inputProblems(rec); len(problems) > 0 {
		zap.L().Warn("classify: invalid input, excluding record",
			zap.String("resolved_id", rec.ResolvedID),
			zap.String("fault", string(fault.ClassificationInput)),
			zap.Strings("problems", problems),
		)
		return model.Classification{
			Tier:       model.TierX,
			ReasonCode: CodeInvalidInput,
			Reason:     "excluded: invalid input: " + strings.Join(problems, "; "),
		}
	}

	if verdict.Action == model.ActionExclude {
		cat := verdict.PrimaryCategory
		if cat == "" {
			cat = string(verdict.RiskLevel)
		}
		return model.Classification{
			Tier:       model.TierX,
			ReasonCode: CodeSafetyPrefix + cat,
			Reason:     fmt.Sprintf("excluded: safety category %s (risk %s, terms %s)", cat, verdict.RiskLevel, strings.Join(verdict.MatchedTerms, ", ")),
		}
	}

	if !rec.HasIdentifier() {
		return model.Classification{
			Tier:       model.TierX,
			ReasonCode: CodeNoIdentifier,
			Reason:     "excluded: no resolvable identifier",
		}
	}

	c := tierRules(rec, lim)

	if verdict.Action == model.ActionDowngrade && (c.Tier == model.TierA || c.Tier == model.TierB) {
		c.Tier = model.TierC
		c.ReasonCode += " " + DowngradeSuffix
		c.Reason = fmt.Sprintf("%s %s by category %s", c.Reason, DowngradeSuffix, verdict.PrimaryCategory)
	}
	return c
}

// tierRules evaluates A, B, C in order; the first match wins.
func tierRules(rec *model.CandidateRecord, lim Limits) model.Classification {
	prime := rec.IsPrimeEligible
	seller := rec.SellerType

	if prime && (seller == model.SellerAmazon || seller == model.SellerOfficial) && rec.Score >= lim.GroupA {
		return model.Classification{
			Tier:       model.TierA,
			ReasonCode: CodeGroupA,
			Reason:     fmt.Sprintf("group A: prime-eligible %s seller, score %.2f >= group_a_threshold %.2f", seller, rec.Score, lim.GroupA),
		}
	}

	switch {
	case prime && seller == model.SellerThirdParty:
		return model.Classification{
			Tier:       model.TierB,
			ReasonCode: CodeGroupB,
			Reason:     "group B: prime-eligible third_party seller",
		}
	case rec.FulfillmentHours != nil && *rec.FulfillmentHours <= lim.FastHours:
		return model.Classification{
			Tier:       model.TierB,
			ReasonCode: CodeGroupB,
			Reason:     fmt.Sprintf("group B: fulfillment %.1fh <= fast_hours %.1fh", *rec.FulfillmentHours, lim.FastHours),
		}
	case rec.Score >= lim.GroupB:
		return model.Classification{
			Tier:       model.TierB,
			ReasonCode: CodeGroupB,
			Reason:     fmt.Sprintf("group B: score %.2f >= group_b_threshold %.2f", rec.Score, lim.GroupB),
		}
	}

	if rec.RelevanceScore >= lim.LowRelevance {
		return model.Classification{
			Tier:       model.TierC,
			ReasonCode: CodeGroupC,
			Reason:     fmt.Sprintf("group C: relevance %.2f >= low_relevance_threshold %.2f", rec.RelevanceScore, lim.LowRelevance),
		}
	}

	return model.Classification{
		Tier:       model.TierX,
		ReasonCode: CodeBelowThreshold,
		Reason: fmt.Sprintf("excluded: score %.2f < group_b_threshold %.2f and relevance %.2f < low_relevance_threshold %.2f",
			rec.Score, lim.GroupB, rec.RelevanceScore, lim.LowRelevance),
	}
}

// Validate checks rec for missing required fields and out-of-range numeric
// signals. It returns a fault.ClassificationInput error describing every
// problem found.
func Validate(rec *model.CandidateRecord) error {
	problems := inputProblems(rec)
	if len(problems) == 0 {
		return nil
	}
	return fault.New(fault.ClassificationInput, eris.New("classify: "+strings.Join(problems, "; ")))
}

func inputProblems(rec *model.CandidateRecord) []string {
	var errs []string
	for _, f := range rec.MissingFields {
		errs = append(errs, f+" missing")
	}
	if !inRange(rec.RelevanceScore) {
		errs = append(errs, fmt.Sprintf("relevance_score %v outside [0,100]", rec.RelevanceScore))
	}
	if !inRange(rec.Score) {
		errs = append(errs, fmt.Sprintf("score %v outside [0,100]", rec.Score))
	}
	if h := rec.FulfillmentHours; h != nil && (math.IsNaN(*h) || math.IsInf(*h, 0) || *h < 0) {
		errs = append(errs, fmt.Sprintf("fulfillment_hours %v is not a non-negative number", *h))
	}
	return errs
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}
