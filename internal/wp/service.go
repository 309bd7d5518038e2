package wp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Options tune a WPService.
type Options struct {
	// ScratchRoot is where per-run scratch directories are created.
	// Empty means the OS temp directory.
	ScratchRoot string

	// ExeSuffix is appended to the artifact name when locating the binary.
	ExeSuffix string
}

// Result is the outcome of a successful packaging run.
type Result struct {
	Slot       *OutputSlot
	Commit     *CommitResult
	Bundle     *BundleResult
	StartedAt  time.Time
	FinishedAt time.Time

	// PublishedKey is the vault key of the uploaded artifact, if any.
	PublishedKey string
}

// WPService runs the packaging pipeline: validate, allocate a slot, stage
// inputs, generate the descriptor, invoke the bundler and commit.
type WPService struct {
	stager  Stager
	bundler Bundler
	logger  Logger
	clock   Clock
	opts    Options
}

// NewWPService creates a new WPService with the provided dependencies.
func NewWPService(stager Stager, bundler Bundler, logger Logger, clock Clock, opts Options) *WPService {
	return &WPService{
		stager:  stager,
		bundler: bundler,
		logger:  logger,
		clock:   clock,
		opts:    opts,
	}
}

// Package runs one request through the pipeline.
//
// The scratch directory is always removed. When any step after slot
// allocation fails, the slot directory is removed too, so a slot is either
// fully committed or absent.
func (s *WPService) Package(ctx context.Context, req *PackagingRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := s.clock.Now()

	slot, err := Allocate(req.OutputRoot)
	if err != nil {
		return nil, err
	}
	s.logger.Info("output slot allocated", "path", slot.Path, "ordinal", slot.Ordinal)

	result, err := s.run(ctx, req, slot)
	if err != nil {
		if rmErr := os.RemoveAll(slot.Path); rmErr != nil {
			s.logger.Warn("failed to remove output slot", "path", slot.Path, "error", rmErr)
		}
		s.logger.Error("packaging failed", "mode", req.Mode, "source", req.Source, "error", err)
		return nil, err
	}

	result.StartedAt = started
	result.FinishedAt = s.clock.Now()
	s.logger.Info("packaging complete", "binary", result.Commit.BinaryPath)
	return result, nil
}

func (s *WPService) run(ctx context.Context, req *PackagingRequest, slot *OutputSlot) (*Result, error) {
	if s.opts.ScratchRoot != "" {
		if err := os.MkdirAll(s.opts.ScratchRoot, 0700); err != nil {
			return nil, &IOError{Op: "creating scratch root", Err: err}
		}
	}
	scratch, err := os.MkdirTemp(s.opts.ScratchRoot, "webpkg-")
	if err != nil {
		return nil, &IOError{Op: "creating scratch directory", Err: err}
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			s.logger.Warn("failed to remove scratch directory", "path", scratch, "error", err)
		}
	}()

	staged, err := s.stager.Stage(ctx, req, scratch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("inputs staged", "files", len(staged.Files), "icon", staged.IconPath != "")

	descriptor, launcher, err := Generate(req, staged)
	if err != nil {
		return nil, err
	}
	descriptorPath := filepath.Join(scratch, DescriptorFileName)
	if err := os.WriteFile(filepath.Join(scratch, LauncherFileName), []byte(launcher), 0644); err != nil {
		return nil, &IOError{Op: "writing launcher", Err: err}
	}
	if err := os.WriteFile(descriptorPath, []byte(descriptor), 0644); err != nil {
		return nil, &IOError{Op: "writing descriptor", Err: err}
	}
	s.logger.Debug("descriptor written", "path", descriptorPath)

	s.logger.Info("running bundler", "output", slot.Path)
	bundle, err := s.bundler.Invoke(ctx, descriptorPath, scratch, slot.Path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bundler finished", "exit_code", bundle.ExitCode, "duration", bundle.Duration)
	if bundle.ExitCode != 0 {
		return nil, &BundleError{ExitCode: bundle.ExitCode, Stderr: bundle.Stderr}
	}

	commit, err := Commit(ctx, slot, req, bundle, s.opts.ExeSuffix)
	if err != nil {
		return nil, fmt.Errorf("committing output: %w", err)
	}

	return &Result{Slot: slot, Commit: commit, Bundle: bundle}, nil
}
