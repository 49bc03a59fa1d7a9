// Package status aggregates batch classification results for reporting.
package status

import (
	"math"

	"github.com/sells-group/relist-cli/internal/model"
)

// Summarize reports per-tier counts and rates over records. Rates are
// percentages of the total; Progress is processed/total in [0,1]. An empty
// slice yields all-zero counts and rates.
func Summarize(records []model.CandidateRecord) model.BatchSummary {
	s := model.BatchSummary{
		Total:           len(records),
		PerTierCount:    make(map[model.Tier]int, 4),
		PerTierRate:     make(map[model.Tier]float64, 4),
		RiskLevelCounts: make(map[model.RiskLevel]int, 4),
	}
	for _, t := range model.Tiers() {
		s.PerTierCount[t] = 0
		s.PerTierRate[t] = 0
	}
	for _, r := range model.RiskLevels() {
		s.RiskLevelCounts[r] = 0
	}

	var (
		scoreSum float64
		scored   int
		prime    int
	)
	for i := range records {
		rec := &records[i]
		if rec.IsPrimeEligible {
			prime++
		}
		if v := rec.SafetyVerdict; v != nil {
			if v.IsFlagged {
				s.SafetyFlaggedCount++
			}
			if _, ok := s.RiskLevelCounts[v.RiskLevel]; ok {
				s.RiskLevelCounts[v.RiskLevel]++
			}
		}
		if !rec.Classified() {
			continue
		}
		s.ProcessedCount++
		s.PerTierCount[rec.PriorityTier]++
		if rec.PriorityTier != model.TierX && !math.IsNaN(rec.Score) {
			scoreSum += rec.Score
			scored++
		}
	}

	if s.Total == 0 {
		return s
	}
	for t, n := range s.PerTierCount {
		s.PerTierRate[t] = percent(n, s.Total)
	}
	s.PrimeEligibleRate = percent(prime, s.Total)
	s.Progress = float64(s.ProcessedCount) / float64(s.Total)
	if scored > 0 {
		s.AverageScore = round2(scoreSum / float64(scored))
	}
	return s
}

func percent(n, total int) float64 {
	return round2(float64(n) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
