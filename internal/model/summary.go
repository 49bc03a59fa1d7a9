package model

// BatchSummary aggregates the classification results of a batch.
type BatchSummary struct {
	Total              int               `json:"total"`
	ProcessedCount     int               `json:"processed_count"`
	Progress           float64           `json:"progress"`
	PerTierCount       map[Tier]int      `json:"per_tier_count"`
	PerTierRate        map[Tier]float64  `json:"per_tier_rate"`
	AverageScore       float64           `json:"average_score"`
	SafetyFlaggedCount int               `json:"safety_flagged_count"`
	PrimeEligibleRate  float64           `json:"prime_eligible_rate"`
	RiskLevelCounts    map[RiskLevel]int `json:"risk_level_counts"`
}
