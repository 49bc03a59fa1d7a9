package classify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relist-cli/internal/model"
)

type memOverrides struct {
	mu        sync.Mutex
	overrides map[string]model.Override
	audit     map[string][]model.AuditEntry
	fail      bool
}

func newMemOverrides() *memOverrides {
	return &memOverrides{
		overrides: make(map[string]model.Override),
		audit:     make(map[string][]model.AuditEntry),
	}
}

func (m *memOverrides) SaveOverride(_ context.Context, o model.Override, e model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.overrides[o.RecordID] = o
	m.audit[o.RecordID] = append(m.audit[o.RecordID], e)
	return nil
}

func (m *memOverrides) ListOverrides(context.Context) ([]model.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Override
	for _, o := range m.overrides {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOverrides) ListAudit(_ context.Context, id string) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditEntry(nil), m.audit[id]...), nil
}

func fixedBook(store OverrideStore) *Book {
	b := NewBook(store)
	b.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	b.newID = func() string {
		n++
		return "audit-" + string(rune('0'+n))
	}
	return b
}

func TestBook_PromoteAndReject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := fixedBook(newMemOverrides())

	e, err := b.Promote(ctx, "B01", "alice", "hand checked")
	require.NoError(t, err)
	assert.Equal(t, model.TierA, e.ToTier)
	assert.Equal(t, model.ReviewApproved, e.Status)
	assert.Equal(t, model.TierUnclassified, e.FromTier)

	e, err = b.Reject(ctx, "B01", model.TierX, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, model.TierA, e.FromTier)
	assert.Equal(t, model.TierX, e.ToTier)

	o, ok := b.Get("B01")
	require.True(t, ok)
	assert.Equal(t, model.ReviewRejected, o.Status)
	assert.Len(t, b.Audit("B01"), 2)
}

func TestBook_RejectTierMustBeCOrX(t *testing.T) {
	t.Parallel()
	b := NewBook(nil)
	_, err := b.Reject(context.Background(), "B01", model.TierB, "u", "")
	assert.Error(t, err)
	_, err = b.Promote(context.Background(), "  ", "u", "")
	assert.Error(t, err)
}

func TestBook_PersistFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	store := newMemOverrides()
	store.fail = true
	b := NewBook(store)

	_, err := b.Promote(context.Background(), "B01", "u", "")
	require.Error(t, err)
	_, ok := b.Get("B01")
	assert.False(t, ok)
	assert.Empty(t, b.Audit("B01"))
}

func TestBook_ApplySurvivesRecomputation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newMemOverrides()

	b := fixedBook(store)
	_, err := b.Promote(ctx, "B01", "alice", "")
	require.NoError(t, err)
	_, err = b.Reject(ctx, "B02", model.TierC, "alice", "dup listing")
	require.NoError(t, err)

	reloaded := NewBook(store)
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.List(), 2)

	records := []model.CandidateRecord{
		{ResolvedID: "B01", PriorityTier: model.TierX, ReasonCode: CodeBelowThreshold},
		{ResolvedID: "B02", PriorityTier: model.TierA, ReasonCode: CodeGroupA},
		{ResolvedID: "B03", PriorityTier: model.TierB, ReasonCode: CodeGroupB},
	}
	n := reloaded.Apply(records)
	assert.Equal(t, 2, n)

	assert.Equal(t, model.TierA, records[0].PriorityTier)
	assert.Equal(t, model.ReviewApproved, records[0].ReviewStatus)
	assert.Equal(t, CodeApproved, records[0].ReasonCode)
	assert.Contains(t, records[0].ClassificationReason, "rule result X")
	assert.Len(t, records[0].AuditTrail, 1)

	assert.Equal(t, model.TierC, records[1].PriorityTier)
	assert.Equal(t, model.ReviewRejected, records[1].ReviewStatus)
	assert.Contains(t, records[1].ClassificationReason, "dup listing")

	assert.Equal(t, model.TierB, records[2].PriorityTier)
	assert.Equal(t, model.ReviewNone, records[2].ReviewStatus)
}

func TestBook_ApplySkipsUnclassified(t *testing.T) {
	t.Parallel()
	b := fixedBook(newMemOverrides())
	_, err := b.Promote(context.Background(), "B01", "alice", "")
	require.NoError(t, err)

	records := []model.CandidateRecord{{ResolvedID: "B01", TitleText: "never processed"}}
	assert.Equal(t, 0, b.Apply(records))
	assert.Equal(t, model.TierUnclassified, records[0].PriorityTier)
	assert.Equal(t, model.ReviewNone, records[0].ReviewStatus)
	assert.Empty(t, records[0].AuditTrail)
}

func TestBook_AuditIsCopy(t *testing.T) {
	t.Parallel()
	b := NewBook(nil)
	_, err := b.Promote(context.Background(), "B01", "u", "")
	require.NoError(t, err)

	trail := b.Audit("B01")
	trail[0].User = "mallory"
	assert.Equal(t, "u", b.Audit("B01")[0].User)
}
