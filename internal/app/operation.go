package app

import (
	"path/filepath"
	"strconv"
	"time"

	"webpkg/internal/encryption"
	"webpkg/internal/model"
	"webpkg/internal/vault"
	"webpkg/internal/wp"
)

// newRun builds the ledger record for a packaging request. The run starts in
// the running state; slot and outcome are filled in once known.
func newRun(runID string, req *wp.PackagingRequest, now time.Time) *model.Run {
	return &model.Run{
		RunID:      runID,
		Mode:       req.Mode.String(),
		Source:     req.Source,
		Title:      req.WindowTitle,
		OutputRoot: req.OutputRoot,
		Status:     model.RunRunning,
		StartedAt:  now.UTC(),
	}
}

// artifactKey returns the vault key for a committed binary:
// <prefix>/<ordinal>-<runID>/<binary name>[.age]
func artifactKey(prefix string, run *model.Run, binaryPath string, encrypted bool) string {
	name := filepath.Base(binaryPath)
	if encrypted {
		name += encryption.EncryptedSuffix
	}
	return vault.JoinKey(prefix, strconv.Itoa(run.Ordinal)+"-"+run.RunID, name)
}
