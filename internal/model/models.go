package model

import "time"

// Run status values stored in the ledger.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunError   = "error"
)

// Run is one packaging attempt recorded in the run ledger.
type Run struct {
	ID          int64
	RunID       string // UUID shared with the log file
	Mode        string // url, file or folder
	Source      string
	Title       string
	OutputRoot  string
	SlotPath    string // empty until a slot was allocated
	Ordinal     int
	Status      string
	Message     string // error text, or the binary path on success
	ArtifactKey string // vault key of the published artifact, if any
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Duration reports how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
