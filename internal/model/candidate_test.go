package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSellerType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want SellerType
	}{
		{"amazon", SellerAmazon},
		{"Marketplace Owner", SellerAmazon},
		{"official-manufacturer", SellerOfficial},
		{"OFFICIAL", SellerOfficial},
		{"third party", SellerThirdParty},
		{"3p", SellerThirdParty},
		{"", SellerUnknown},
		{"drop shipper", SellerUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSellerType(tt.in), tt.in)
	}
}

func TestTierRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, TierA.Rank(), TierB.Rank())
	assert.Less(t, TierB.Rank(), TierC.Rank())
	assert.Less(t, TierC.Rank(), TierX.Rank())
	assert.Less(t, TierX.Rank(), TierUnclassified.Rank())
	assert.True(t, TierX.Terminal())
	assert.False(t, TierUnclassified.Terminal())
}

func TestHasIdentifier(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "  ", "N/A", "none", "NULL", "-"} {
		r := CandidateRecord{ResolvedID: id}
		assert.False(t, r.HasIdentifier(), "%q", id)
	}
	r := CandidateRecord{ResolvedID: "B00TEST123"}
	assert.True(t, r.HasIdentifier())
}

func TestSafetyText(t *testing.T) {
	t.Parallel()

	r := CandidateRecord{TitleText: "Water bottle"}
	assert.Equal(t, "Water bottle", r.SafetyText())
	r.ExtractedBrand = "Acme"
	assert.Equal(t, "Water bottle Acme", r.SafetyText())
}

func TestRiskSeverityOrder(t *testing.T) {
	t.Parallel()

	levels := RiskLevels()
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i].Severity(), levels[i-1].Severity())
	}
}
