// Package store persists the override audit trail and the batch run log.
package store

import (
	"context"

	"github.com/sells-group/relist-cli/internal/model"
)

// RunFilter specifies criteria for listing batch runs.
type RunFilter struct {
	Preset string `json:"preset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for classification state that
// outlives a single batch.
type Store interface {
	// Overrides
	SaveOverride(ctx context.Context, o model.Override, entry model.AuditEntry) error
	ListOverrides(ctx context.Context) ([]model.Override, error)
	ListAudit(ctx context.Context, recordID string) ([]model.AuditEntry, error)

	// Batch runs
	SaveRun(ctx context.Context, run model.BatchRun) error
	GetRun(ctx context.Context, id string) (*model.BatchRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.BatchRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
