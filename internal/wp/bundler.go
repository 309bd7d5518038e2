package wp

import (
	"context"
	"time"
)

// BundleResult is the outcome of one bundler process.
type BundleResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Bundler runs the external packaging tool.
// A non-zero exit is reported through BundleResult, not as an error.
// Errors are reserved for processes that could not run to completion.
type Bundler interface {
	Invoke(ctx context.Context, descriptorPath, scratchDir, outputDir string) (*BundleResult, error)
}
