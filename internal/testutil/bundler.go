package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"webpkg/internal/wp"
)

// BundlerCall records one FakeBundler.Invoke call.
type BundlerCall struct {
	DescriptorPath string
	ScratchDir     string
	OutputDir      string
	Descriptor     string // descriptor contents at call time
	Launcher       string // launcher contents at call time
}

// FakeBundler implements wp.Bundler without running a process.
// By default it writes BinaryName into the output directory and exits 0.
type FakeBundler struct {
	// BinaryName is the file created in the output directory on success.
	// Empty means no binary is written.
	BinaryName string

	ExitCode int
	Stderr   string
	Err      error

	mu    sync.Mutex
	calls []BundlerCall
}

var _ wp.Bundler = (*FakeBundler)(nil)

// NewFakeBundler returns a FakeBundler that produces a binary for title.
func NewFakeBundler(title string) *FakeBundler {
	return &FakeBundler{BinaryName: wp.ArtifactName(title) + wp.ExeSuffix()}
}

func (b *FakeBundler) Invoke(ctx context.Context, descriptorPath, scratchDir, outputDir string) (*wp.BundleResult, error) {
	call := BundlerCall{DescriptorPath: descriptorPath, ScratchDir: scratchDir, OutputDir: outputDir}
	if data, err := os.ReadFile(descriptorPath); err == nil {
		call.Descriptor = string(data)
	}
	if data, err := os.ReadFile(filepath.Join(scratchDir, wp.LauncherFileName)); err == nil {
		call.Launcher = string(data)
	}
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()

	if b.Err != nil {
		return nil, b.Err
	}
	result := &wp.BundleResult{ExitCode: b.ExitCode, Stderr: b.Stderr, Duration: time.Millisecond}
	if b.ExitCode == 0 && b.BinaryName != "" {
		if err := os.WriteFile(filepath.Join(outputDir, b.BinaryName), []byte("binary"), 0755); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Calls returns the recorded invocations.
func (b *FakeBundler) Calls() []BundlerCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BundlerCall(nil), b.calls...)
}
