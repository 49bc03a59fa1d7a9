// Package fixture generates synthetic candidate records for tests. Output is
// a pure function of the seed.
package fixture

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sells-group/relist-cli/internal/model"
)

var (
	sellers = []model.SellerType{
		model.SellerAmazon,
		model.SellerOfficial,
		model.SellerThirdParty,
		model.SellerUnknown,
	}
	brands = []string{"", "", "Acme", "Globex", "Initech", "Umbrella"}
	nouns  = []string{"water bottle", "phone case", "desk lamp", "yoga mat", "usb cable", "tea kettle", "backpack"}
	hours  = []float64{6, 24, 36, 48, 60, 72, 96, 168}
)

// Generator produces deterministic candidate records.
type Generator struct {
	rng *rand.Rand
	n   int
}

// New returns a Generator seeded with seed.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Record returns the next synthetic record. Signals are valid: relevance in
// [0,100], hours unknown or non-negative.
func (g *Generator) Record() model.CandidateRecord {
	g.n++
	rec := model.CandidateRecord{
		ResolvedID:      fmt.Sprintf("B%08d", g.n),
		SellerType:      sellers[g.rng.IntN(len(sellers))],
		IsPrimeEligible: g.rng.IntN(2) == 0,
		RelevanceScore:  math.Round(g.rng.Float64()*10000) / 100,
		ExtractedBrand:  brands[g.rng.IntN(len(brands))],
	}
	rec.TitleText = nouns[g.rng.IntN(len(nouns))]
	if rec.ExtractedBrand != "" {
		rec.TitleText = rec.ExtractedBrand + " " + rec.TitleText
	}
	if g.rng.IntN(4) != 0 {
		rec.FulfillmentHours = model.Hours(hours[g.rng.IntN(len(hours))])
	}
	if g.rng.IntN(10) == 0 {
		rec.ResolvedID = ""
	}
	return rec
}

// Records returns n records.
func (g *Generator) Records(n int) []model.CandidateRecord {
	out := make([]model.CandidateRecord, n)
	for i := range out {
		out[i] = g.Record()
	}
	return out
}

// Edge returns hand-picked records at threshold boundaries and with
// malformed signals.
func Edge() []model.CandidateRecord {
	return []model.CandidateRecord{
		{ResolvedID: "E1", SellerType: model.SellerAmazon, IsPrimeEligible: true, Score: 70},
		{ResolvedID: "E2", SellerType: model.SellerUnknown, FulfillmentHours: model.Hours(48), Score: 10},
		{ResolvedID: "E3", SellerType: model.SellerUnknown, RelevanceScore: 30},
		{ResolvedID: "E4", SellerType: model.SellerUnknown, RelevanceScore: 29.99},
		{ResolvedID: "n/a", SellerType: model.SellerAmazon, IsPrimeEligible: true, Score: 100},
		{ResolvedID: "E5", RelevanceScore: math.NaN()},
		{ResolvedID: "E6", RelevanceScore: math.Inf(1)},
		{ResolvedID: "E7", FulfillmentHours: model.Hours(-1)},
		{ResolvedID: "E8", FulfillmentHours: model.Hours(math.NaN())},
		{ResolvedID: "E9", Score: -5},
		{ResolvedID: "E10", SellerType: model.SellerType("bogus"), Score: 100, IsPrimeEligible: true},
		{},
	}
}

// WithTiers returns records already assigned the given tiers, each carrying
// score.
func WithTiers(counts map[model.Tier]int, score float64) []model.CandidateRecord {
	var out []model.CandidateRecord
	for _, tier := range model.Tiers() {
		for i := 0; i < counts[tier]; i++ {
			rec := model.CandidateRecord{
				ResolvedID:   fmt.Sprintf("%s%03d", tier, i+1),
				PriorityTier: tier,
				Score:        score,
			}
			out = append(out, rec)
		}
	}
	return out
}
