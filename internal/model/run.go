package model

import "time"

// RunStatus tracks the lifecycle of a stored extraction run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusDegraded RunStatus = "degraded"
)

// Run is a persisted extraction request: the uploaded filename, the record
// that came out, and enough metadata to list and audit past extractions.
type Run struct {
	ID        string       `json:"id"`
	Filename  string       `json:"filename"`
	Status    RunStatus    `json:"status"`
	Score     int          `json:"score"`
	Result    *VisuraResult `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
