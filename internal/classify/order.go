package classify

import (
	"sort"

	"github.com/sells-group/relist-cli/internal/model"
)

// Less is the presentation order: tier A..X, then score descending, then
// relevance descending, then resolved id so the order is total.
func Less(a, b *model.CandidateRecord) bool {
	if ra, rb := a.PriorityTier.Rank(), b.PriorityTier.Rank(); ra != rb {
		return ra < rb
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.RelevanceScore != b.RelevanceScore {
		return a.RelevanceScore > b.RelevanceScore
	}
	return a.ResolvedID < b.ResolvedID
}

// SortRecords orders records in place.
func SortRecords(records []model.CandidateRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(&records[i], &records[j])
	})
}
