package model

import "time"

// BatchRun is the log entry of one classification batch.
type BatchRun struct {
	ID             string        `json:"id"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Total          int           `json:"total"`
	Processed      int           `json:"processed"`
	Cancelled      bool          `json:"cancelled"`
	ConfigRevision int           `json:"config_revision"`
	Preset         string        `json:"preset"`
	Summary        *BatchSummary `json:"summary,omitempty"`
}
