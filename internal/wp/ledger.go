package wp

import (
	"time"

	"webpkg/internal/model"
)

// RunLedger records packaging attempts.
type RunLedger interface {
	// CreateRun inserts a run in the running state and fills in run.ID.
	CreateRun(run *model.Run) error

	// FinishRun sets the final status, message, slot and finish time.
	FinishRun(run *model.Run) error

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(limit int) ([]*model.Run, error)

	// FindRun returns the run with the given run ID, or nil when absent.
	FindRun(runID string) (*model.Run, error)

	// Close closes the underlying connection.
	Close() error
}

// Finish stamps the run with its outcome.
func Finish(run *model.Run, err error, now time.Time) {
	run.FinishedAt = &now
	if err != nil {
		run.Status = model.RunError
		run.Message = err.Error()
		return
	}
	run.Status = model.RunSuccess
}
