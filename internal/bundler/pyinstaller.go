// Package bundler runs PyInstaller against a generated descriptor.
package bundler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"webpkg/internal/wp"
)

// DefaultCommand is the bundler executable looked up on PATH.
const DefaultCommand = "pyinstaller"

// waitDelay bounds how long Wait blocks on the output pipes after the
// process was killed.
const waitDelay = 5 * time.Second

// Options configure a PyInstaller invoker.
type Options struct {
	Command   string        // executable, DefaultCommand when empty
	Timeout   time.Duration // 0 means no timeout
	ExtraArgs []string      // inserted before the descriptor path
}

// PyInstaller implements wp.Bundler by shelling out to pyinstaller.
type PyInstaller struct {
	opts   Options
	logger wp.Logger
}

var _ wp.Bundler = (*PyInstaller)(nil)

// NewPyInstaller creates a PyInstaller invoker.
func NewPyInstaller(opts Options, logger wp.Logger) *PyInstaller {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	return &PyInstaller{opts: opts, logger: logger}
}

// Args returns the argument list for one invocation.
// Single-file and windowed output are selected by the descriptor itself,
// since PyInstaller rejects those flags next to a spec file.
func (p *PyInstaller) Args(descriptorPath, scratchDir, outputDir string) []string {
	args := []string{
		"--noconfirm",
		"--distpath", outputDir,
		"--workpath", filepath.Join(scratchDir, "build"),
	}
	args = append(args, p.opts.ExtraArgs...)
	return append(args, descriptorPath)
}

// Invoke runs the bundler to completion and returns its captured output.
// A non-zero exit is returned in the result with a nil error. A process
// that cannot start, or that is killed by the timeout, yields a
// *wp.BundleError with exit code -1.
func (p *PyInstaller) Invoke(ctx context.Context, descriptorPath, scratchDir, outputDir string) (*wp.BundleResult, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	args := p.Args(descriptorPath, scratchDir, outputDir)
	cmd := exec.CommandContext(ctx, p.opts.Command, args...)
	cmd.Dir = scratchDir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("starting bundler", "command", p.opts.Command, "args", args)
	start := time.Now()
	err := cmd.Run()
	result := &wp.BundleResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, &wp.BundleError{
				ExitCode: -1,
				Stderr:   fmt.Sprintf("bundler timed out after %s\n%s", p.opts.Timeout, result.Stderr),
			}
		}
		return nil, &wp.BundleError{ExitCode: -1, Stderr: fmt.Sprintf("bundler cancelled: %v\n%s", ctxErr, result.Stderr)}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, &wp.BundleError{ExitCode: -1, Stderr: fmt.Sprintf("starting %s: %v", p.opts.Command, err)}
	}
	return result, nil
}
