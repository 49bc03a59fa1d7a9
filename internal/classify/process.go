package classify

import (
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/safety"
	"github.com/sells-group/relist-cli/internal/scorer"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// Process scores rec, evaluates its safety and assigns its tier, filling
// the augmented fields in place. Input signals are left untouched.
func Process(rec *model.CandidateRecord, dict safety.Dictionary, snap thresholds.Snapshot) {
	res := scorer.Score(rec, snap)
	rec.Score = res.Value
	rec.ScoreBreakdown = res.Breakdown

	verdict := safety.EvaluateRecord(rec, dict, snap)
	rec.SafetyVerdict = &verdict

	rec.Apply(Classify(rec, verdict, snap))
	rec.ReviewStatus = model.ReviewNone
	rec.AuditTrail = nil
}
