// Package batch classifies a collection of candidates on a bounded worker
// pool against one configuration snapshot.
package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/relist-cli/internal/classify"
	"github.com/sells-group/relist-cli/internal/metrics"
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/safety"
	"github.com/sells-group/relist-cli/internal/status"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// SnapshotSource supplies the threshold configuration.
type SnapshotSource interface {
	Snapshot() thresholds.Snapshot
}

// DictionarySource supplies the banned-term dictionary.
type DictionarySource interface {
	Dictionary() safety.Dictionary
}

// RunRecorder persists the run log.
type RunRecorder interface {
	SaveRun(ctx context.Context, run model.BatchRun) error
}

// Options bounds a single run.
type Options struct {
	Workers int // concurrent workers; <= 0 means 1
	Limit   int // max records to process; <= 0 means all
}

// Result is the outcome of a run. Records holds every input record in
// presentation order; those beyond the limit or skipped by cancellation
// are returned unclassified.
type Result struct {
	Run     model.BatchRun          `json:"run"`
	Records []model.CandidateRecord `json:"records"`
}

// Runner executes batches.
type Runner struct {
	config SnapshotSource
	dict   DictionarySource

	overrides *classify.Book
	runs      RunRecorder
	metrics   *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithOverrides re-applies manual overrides after rule evaluation.
func WithOverrides(b *classify.Book) Option { return func(r *Runner) { r.overrides = b } }

// WithRunLog records each finished run.
func WithRunLog(rec RunRecorder) Option { return func(r *Runner) { r.runs = rec } }

// WithMetrics counts classified records and run durations.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// NewRunner returns a Runner reading configuration from config and dict.
func NewRunner(config SnapshotSource, dict DictionarySource, opts ...Option) *Runner {
	r := &Runner{
		config: config,
		dict:   dict,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run classifies records. The configuration and dictionary are captured once
// at start, so a concurrent threshold update never splits a batch. The input
// slice is not modified. Cancelling ctx stops dispatch; records already
// classified stay valid and the run is marked cancelled.
func (r *Runner) Run(ctx context.Context, records []model.CandidateRecord, opts Options) *Result {
	snap := r.config.Snapshot()
	dict := r.dict.Dictionary()

	run := model.BatchRun{
		ID:             r.newID(),
		StartedAt:      r.now(),
		Total:          len(records),
		ConfigRevision: snap.Revision(),
		Preset:         snap.Preset(),
	}

	out := make([]model.CandidateRecord, len(records))
	copy(out, records)
	for i := range out {
		resetAugmented(&out[i])
	}

	todo := len(out)
	if opts.Limit > 0 && todo > opts.Limit {
		todo = opts.Limit
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("batch: processing",
		zap.Int("records", len(out)),
		zap.Int("limit", todo),
		zap.Int("workers", workers),
		zap.Int("config_revision", run.ConfigRevision),
		zap.String("preset", run.Preset),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var processed atomic.Int64
	for i := 0; i < todo; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			classify.Process(&out[i], dict, snap)
			processed.Add(1)
			return nil
		})
	}
	// Workers never fail; per-record problems are encoded as tier X.
	_ = g.Wait()

	run.Processed = int(processed.Load())
	run.Cancelled = ctx.Err() != nil && run.Processed < todo

	if r.overrides != nil {
		if n := r.overrides.Apply(out); n > 0 {
			log.Info("batch: overrides applied", zap.Int("count", n))
		}
	}
	classify.SortRecords(out)

	summary := status.Summarize(out)
	run.Summary = &summary
	run.FinishedAt = r.now()

	for i := range out {
		r.metrics.ObserveRecord(&out[i])
	}
	r.metrics.ObserveRun(run)

	if run.Cancelled {
		log.Warn("batch: cancelled before completion",
			zap.Int("processed", run.Processed),
			zap.Int("planned", todo),
			zap.Error(ctx.Err()),
		)
	}
	if r.runs != nil {
		if err := r.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			log.Warn("batch: failed to record run", zap.Error(err))
		}
	}

	log.Info("batch: complete",
		zap.Int("processed", run.Processed),
		zap.Int("tier_a", summary.PerTierCount[model.TierA]),
		zap.Int("tier_b", summary.PerTierCount[model.TierB]),
		zap.Int("tier_c", summary.PerTierCount[model.TierC]),
		zap.Int("tier_x", summary.PerTierCount[model.TierX]),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return &Result{Run: run, Records: out}
}

func resetAugmented(rec *model.CandidateRecord) {
	rec.Score = 0
	rec.ScoreBreakdown = nil
	rec.SafetyVerdict = nil
	rec.PriorityTier = model.TierUnclassified
	rec.ReasonCode = ""
	rec.ClassificationReason = ""
	rec.ReviewStatus = model.ReviewNone
	rec.AuditTrail = nil
}
