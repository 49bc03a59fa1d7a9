// Package core exposes the scoring and classification operations behind a
// single capability interface that callers use without feature detection.
package core

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relist-cli/internal/batch"
	"github.com/sells-group/relist-cli/internal/classify"
	"github.com/sells-group/relist-cli/internal/metrics"
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/safety"
	"github.com/sells-group/relist-cli/internal/scorer"
	"github.com/sells-group/relist-cli/internal/status"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// Service is the complete set of operations the core offers. Every method
// is always implemented.
type Service interface {
	// Thresholds
	GetThreshold(category, key string, fallback any) any
	UpdateThreshold(category, key string, value any, user string) error
	ApplyPreset(name, user string) error
	ResetThresholds(user string) error
	ExportConfig() ([]byte, error)
	ImportConfig(data []byte, user string) error
	ThresholdHistory() []thresholds.HistoryEntry

	// Per-record evaluation
	Score(rec *model.CandidateRecord) scorer.Result
	EvaluateSafety(text string) model.SafetyVerdict
	Classify(rec *model.CandidateRecord, verdict model.SafetyVerdict) model.Classification
	Process(rec *model.CandidateRecord)

	// Batches
	RunBatch(ctx context.Context, records []model.CandidateRecord, opts batch.Options) *batch.Result
	Summarize(records []model.CandidateRecord) model.BatchSummary

	// Manual overrides
	Promote(ctx context.Context, recordID, user, note string) (model.AuditEntry, error)
	Reject(ctx context.Context, recordID string, tier model.Tier, user, note string) (model.AuditEntry, error)
	Overrides() []model.Override
}

// Deps are the collaborators of Core. Thresholds and Safety are required.
type Deps struct {
	Thresholds *thresholds.Store
	Safety     *safety.Store
	Overrides  *classify.Book
	Runs       batch.RunRecorder
	Metrics    *metrics.Metrics
}

// Core implements Service over injected stores.
type Core struct {
	thresholds *thresholds.Store
	safety     *safety.Store
	overrides  *classify.Book
	runner     *batch.Runner
}

var _ Service = (*Core)(nil)

// New wires a Core. A nil Overrides gets an in-memory book.
func New(d Deps) (*Core, error) {
	if d.Thresholds == nil {
		return nil, eris.New("core: thresholds store is required")
	}
	if d.Safety == nil {
		return nil, eris.New("core: safety store is required")
	}
	book := d.Overrides
	if book == nil {
		book = classify.NewBook(nil)
	}

	opts := []batch.Option{batch.WithOverrides(book)}
	if d.Runs != nil {
		opts = append(opts, batch.WithRunLog(d.Runs))
	}
	if d.Metrics != nil {
		opts = append(opts, batch.WithMetrics(d.Metrics))
	}

	return &Core{
		thresholds: d.Thresholds,
		safety:     d.Safety,
		overrides:  book,
		runner:     batch.NewRunner(d.Thresholds, d.Safety, opts...),
	}, nil
}

// GetThreshold returns the stored value or fallback.
func (c *Core) GetThreshold(category, key string, fallback any) any {
	return c.thresholds.Get(category, key, fallback)
}

// UpdateThreshold sets one threshold value.
func (c *Core) UpdateThreshold(category, key string, value any, user string) error {
	return c.thresholds.Set(category, key, value, user)
}

// ApplyPreset replaces the configuration with a named preset.
func (c *Core) ApplyPreset(name, user string) error {
	return c.thresholds.ApplyPreset(name, user)
}

// ResetThresholds restores the balanced defaults.
func (c *Core) ResetThresholds(user string) error {
	return c.thresholds.Reset(user)
}

// ExportConfig serializes the full threshold document.
func (c *Core) ExportConfig() ([]byte, error) {
	return c.thresholds.ExportSnapshot()
}

// ImportConfig replaces the threshold document with data.
func (c *Core) ImportConfig(data []byte, user string) error {
	return c.thresholds.ImportSnapshot(data, user)
}

// ThresholdHistory returns the change history.
func (c *Core) ThresholdHistory() []thresholds.HistoryEntry {
	return c.thresholds.History()
}

// Score computes the composite score of rec under the live configuration.
func (c *Core) Score(rec *model.CandidateRecord) scorer.Result {
	return scorer.Score(rec, c.thresholds.Snapshot())
}

// EvaluateSafety scans text against the live dictionary.
func (c *Core) EvaluateSafety(text string) model.SafetyVerdict {
	return safety.Evaluate(text, c.safety.Dictionary(), c.thresholds.Snapshot())
}

// Classify assigns the tier of an already scored record.
func (c *Core) Classify(rec *model.CandidateRecord, verdict model.SafetyVerdict) model.Classification {
	return classify.Classify(rec, verdict, c.thresholds.Snapshot())
}

// Process scores, evaluates and classifies rec in place, then applies any
// manual override for it.
func (c *Core) Process(rec *model.CandidateRecord) {
	classify.Process(rec, c.safety.Dictionary(), c.thresholds.Snapshot())
	one := []model.CandidateRecord{*rec}
	if c.overrides.Apply(one) > 0 {
		*rec = one[0]
	}
}

// RunBatch classifies records on a bounded worker pool.
func (c *Core) RunBatch(ctx context.Context, records []model.CandidateRecord, opts batch.Options) *batch.Result {
	return c.runner.Run(ctx, records, opts)
}

// Summarize aggregates classified records.
func (c *Core) Summarize(records []model.CandidateRecord) model.BatchSummary {
	return status.Summarize(records)
}

// Promote forces recordID to tier A.
func (c *Core) Promote(ctx context.Context, recordID, user, note string) (model.AuditEntry, error) {
	return c.overrides.Promote(ctx, recordID, user, note)
}

// Reject forces recordID to tier C or X.
func (c *Core) Reject(ctx context.Context, recordID string, tier model.Tier, user, note string) (model.AuditEntry, error) {
	return c.overrides.Reject(ctx, recordID, tier, user, note)
}

// Overrides lists the manual overrides.
func (c *Core) Overrides() []model.Override {
	return c.overrides.List()
}
