package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relist-cli/internal/model"
)

func TestObserveRecord(t *testing.T) {
	m := New()
	flagged := model.SafetyVerdict{IsFlagged: true, RiskLevel: model.RiskMedium, Action: model.ActionDowngrade}

	m.ObserveRecord(&model.CandidateRecord{PriorityTier: model.TierA})
	m.ObserveRecord(&model.CandidateRecord{PriorityTier: model.TierC, SafetyVerdict: &flagged})
	m.ObserveRecord(&model.CandidateRecord{PriorityTier: model.TierX, ReasonCode: "invalid-input"})
	m.ObserveRecord(&model.CandidateRecord{PriorityTier: model.TierA, ReviewStatus: model.ReviewApproved})
	m.ObserveRecord(&model.CandidateRecord{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsClassified.WithLabelValues("A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsClassified.WithLabelValues("X")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SafetyVerdicts.WithLabelValues("medium", "downgrade")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvalidInputs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Overrides.WithLabelValues("approved")))
}

func TestObserveRun(t *testing.T) {
	m := New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.ObserveRun(model.BatchRun{StartedAt: start, FinishedAt: start.Add(time.Second), Processed: 12, ConfigRevision: 4, Cancelled: true})

	assert.Equal(t, 12.0, testutil.ToFloat64(m.BatchProcessed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ConfigRevision))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchCancelled))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRecord(&model.CandidateRecord{PriorityTier: model.TierA})
	m.ObserveRun(model.BatchRun{})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRecord(&model.CandidateRecord{PriorityTier: model.TierB})

	path := filepath.Join(t.TempDir(), "relist.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `relist_records_classified_total{tier="B"} 1`)
}
