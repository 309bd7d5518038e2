package wp

import "fmt"

// ValidationError reports a request that was rejected before the pipeline
// started. Nothing on disk has been touched when it is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// IOError wraps a filesystem failure inside the pipeline.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// BundleError reports a bundler run that did not succeed.
// Stderr holds the captured diagnostic text unmodified.
type BundleError struct {
	ExitCode int
	Stderr   string
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("bundler exited with status %d: %s", e.ExitCode, e.Stderr)
}
