package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relist-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// --- Overrides ---

func TestSQLite_Override_SaveAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	o := model.Override{RecordID: "B01", Tier: model.TierA, Status: model.ReviewApproved, User: "alice", Note: "ok", UpdatedAt: t0}
	e := model.AuditEntry{ID: "a1", RecordID: "B01", Action: model.OverridePromote, ToTier: model.TierA, Status: model.ReviewApproved, User: "alice", Note: "ok", At: t0}
	require.NoError(t, st.SaveOverride(ctx, o, e))

	list, err := st.ListOverrides(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B01", list[0].RecordID)
	assert.Equal(t, model.TierA, list[0].Tier)
	assert.Equal(t, "alice", list[0].User)
	assert.True(t, t0.Equal(list[0].UpdatedAt))
}

func TestSQLite_Override_UpsertKeepsAuditTrail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveOverride(ctx,
		model.Override{RecordID: "B01", Tier: model.TierA, Status: model.ReviewApproved, User: "alice", UpdatedAt: t0},
		model.AuditEntry{ID: "a1", RecordID: "B01", Action: model.OverridePromote, ToTier: model.TierA, Status: model.ReviewApproved, User: "alice", At: t0},
	))
	require.NoError(t, st.SaveOverride(ctx,
		model.Override{RecordID: "B01", Tier: model.TierX, Status: model.ReviewRejected, User: "bob", UpdatedAt: t0.Add(time.Minute)},
		model.AuditEntry{ID: "a2", RecordID: "B01", Action: model.OverrideReject, FromTier: model.TierA, ToTier: model.TierX, Status: model.ReviewRejected, User: "bob", At: t0.Add(time.Minute)},
	))

	list, err := st.ListOverrides(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.TierX, list[0].Tier)
	assert.Equal(t, "bob", list[0].User)

	audit, err := st.ListAudit(ctx, "B01")
	require.NoError(t, err)
	require.Len(t, audit, 2)
	assert.Equal(t, "a1", audit[0].ID)
	assert.Equal(t, "a2", audit[1].ID)
	assert.Equal(t, model.TierA, audit[1].FromTier)
}

func TestSQLite_Override_DuplicateAuditIDRollsBack(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	e := model.AuditEntry{ID: "dup", RecordID: "B01", Action: model.OverridePromote, ToTier: model.TierA, Status: model.ReviewApproved, At: t0}
	require.NoError(t, st.SaveOverride(ctx, model.Override{RecordID: "B01", Tier: model.TierA, Status: model.ReviewApproved, UpdatedAt: t0}, e))

	e.RecordID = "B02"
	err := st.SaveOverride(ctx, model.Override{RecordID: "B02", Tier: model.TierA, Status: model.ReviewApproved, UpdatedAt: t0}, e)
	require.Error(t, err)

	list, err := st.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLite_ListAudit_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	audit, err := st.ListAudit(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, audit)
}

// --- Batch runs ---

func TestSQLite_Run_SaveAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	summary := &model.BatchSummary{
		Total:        4,
		PerTierCount: map[model.Tier]int{model.TierA: 1, model.TierX: 3},
		AverageScore: 81.5,
	}
	run := model.BatchRun{
		ID: "run-1", StartedAt: t0, FinishedAt: t0.Add(2 * time.Second),
		Total: 4, Processed: 4, ConfigRevision: 7, Preset: "balanced", Summary: summary,
	}
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.ConfigRevision)
	assert.False(t, got.Cancelled)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 3, got.Summary.PerTierCount[model.TierX])
	assert.InDelta(t, 81.5, got.Summary.AverageScore, 0.001)
}

func TestSQLite_Run_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetRun(context.Background(), "nope")
	assert.ErrorContains(t, err, "run not found")
}

func TestSQLite_ListRuns_FilterAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for i, preset := range []string{"balanced", "aggressive", "balanced"} {
		start := t0.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.SaveRun(ctx, model.BatchRun{
			ID: "run-" + string(rune('a'+i)), StartedAt: start, FinishedAt: start.Add(time.Second),
			Total: 10, Processed: 10 - i, Cancelled: i == 1, ConfigRevision: i, Preset: preset,
		}))
	}

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-c", all[0].ID)
	assert.True(t, all[1].Cancelled)

	balanced, err := st.ListRuns(ctx, RunFilter{Preset: "balanced"})
	require.NoError(t, err)
	assert.Len(t, balanced, 2)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "run-b", page[0].ID)
}
