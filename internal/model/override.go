package model

import "time"

// Override actions recorded in the audit trail.
const (
	OverridePromote = "promote"
	OverrideReject  = "reject"
)

// Override is a manual tier decision that bypasses rule evaluation. It is
// keyed by the record's resolved identifier and survives recomputation.
type Override struct {
	RecordID  string       `json:"record_id"`
	Tier      Tier         `json:"tier"`
	Status    ReviewStatus `json:"status"`
	User      string       `json:"user"`
	Note      string       `json:"note,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}
