package classify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relist-cli/internal/model"
)

// OverrideStore persists manual overrides and their audit trail.
type OverrideStore interface {
	SaveOverride(ctx context.Context, o model.Override, entry model.AuditEntry) error
	ListOverrides(ctx context.Context) ([]model.Override, error)
	ListAudit(ctx context.Context, recordID string) ([]model.AuditEntry, error)
}

// Book holds the manual overrides. They bypass rule evaluation and are
// re-applied after every recomputation.
type Book struct {
	mu        sync.RWMutex
	store     OverrideStore
	overrides map[string]model.Override
	audit     map[string][]model.AuditEntry

	now   func() time.Time
	newID func() string
}

// NewBook returns a Book backed by store. A nil store keeps overrides in
// memory only.
func NewBook(store OverrideStore) *Book {
	return &Book{
		store:     store,
		overrides: make(map[string]model.Override),
		audit:     make(map[string][]model.AuditEntry),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// Load reads persisted overrides and their audit trails.
func (b *Book) Load(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	list, err := b.store.ListOverrides(ctx)
	if err != nil {
		return eris.Wrap(err, "classify: load overrides")
	}

	overrides := make(map[string]model.Override, len(list))
	audit := make(map[string][]model.AuditEntry, len(list))
	for _, o := range list {
		entries, err := b.store.ListAudit(ctx, o.RecordID)
		if err != nil {
			return eris.Wrapf(err, "classify: load audit for %s", o.RecordID)
		}
		overrides[o.RecordID] = o
		audit[o.RecordID] = entries
	}

	b.mu.Lock()
	b.overrides = overrides
	b.audit = audit
	b.mu.Unlock()

	zap.L().Debug("classify: overrides loaded", zap.Int("count", len(overrides)))
	return nil
}

// Promote forces the record to tier A and marks it approved.
func (b *Book) Promote(ctx context.Context, recordID, user, note string) (model.AuditEntry, error) {
	return b.record(ctx, model.OverridePromote, recordID, model.TierA, model.ReviewApproved, user, note)
}

// Reject forces the record to tier C or X and marks it rejected.
func (b *Book) Reject(ctx context.Context, recordID string, tier model.Tier, user, note string) (model.AuditEntry, error) {
	if tier != model.TierC && tier != model.TierX {
		return model.AuditEntry{}, eris.Errorf("classify: reject tier must be C or X, got %q", tier)
	}
	return b.record(ctx, model.OverrideReject, recordID, tier, model.ReviewRejected, user, note)
}

func (b *Book) record(ctx context.Context, action, recordID string, tier model.Tier, status model.ReviewStatus, user, note string) (model.AuditEntry, error) {
	id := strings.TrimSpace(recordID)
	if id == "" {
		return model.AuditEntry{}, eris.New("classify: override requires a record id")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	prev := b.overrides[id]
	o := model.Override{
		RecordID:  id,
		Tier:      tier,
		Status:    status,
		User:      user,
		Note:      note,
		UpdatedAt: now,
	}
	entry := model.AuditEntry{
		ID:       b.newID(),
		RecordID: id,
		Action:   action,
		FromTier: prev.Tier,
		ToTier:   tier,
		Status:   status,
		User:     user,
		Note:     note,
		At:       now,
	}

	if b.store != nil {
		if err := b.store.SaveOverride(ctx, o, entry); err != nil {
			return model.AuditEntry{}, eris.Wrapf(err, "classify: save override %s", id)
		}
	}

	b.overrides[id] = o
	trail := make([]model.AuditEntry, len(b.audit[id]), len(b.audit[id])+1)
	copy(trail, b.audit[id])
	b.audit[id] = append(trail, entry)

	zap.L().Info("classify: override recorded",
		zap.String("record_id", id),
		zap.String("action", action),
		zap.String("tier", string(tier)),
		zap.String("user", user),
	)
	return entry, nil
}

// Get returns the override for recordID, if any.
func (b *Book) Get(recordID string) (model.Override, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.overrides[recordID]
	return o, ok
}

// List returns all overrides ordered by record id.
func (b *Book) List() []model.Override {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Override, 0, len(b.overrides))
	for _, o := range b.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// Audit returns a copy of the audit trail for recordID.
func (b *Book) Audit(recordID string) []model.AuditEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.AuditEntry(nil), b.audit[recordID]...)
}

// Apply overlays overrides onto classified records. Records that were never
// run through the rules are left unclassified. It reports how many records
// were overridden.
func (b *Book) Apply(records []model.CandidateRecord) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for i := range records {
		rec := &records[i]
		if !rec.Classified() {
			continue
		}
		o, ok := b.overrides[strings.TrimSpace(rec.ResolvedID)]
		if !ok {
			continue
		}
		code := CodeApproved
		if o.Status == model.ReviewRejected {
			code = CodeRejected
		}
		reason := fmt.Sprintf("manual override by %s (rule result %s)", o.User, rec.PriorityTier)
		if o.Note != "" {
			reason += ": " + o.Note
		}
		rec.Apply(model.Classification{Tier: o.Tier, ReasonCode: code, Reason: reason})
		rec.ReviewStatus = o.Status
		rec.AuditTrail = append([]model.AuditEntry(nil), b.audit[o.RecordID]...)
		n++
	}
	return n
}
