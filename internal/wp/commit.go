package wp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	wpfs "webpkg/internal/fs"
)

// WebContentDir is the slot subdirectory that receives a FOLDER source.
const WebContentDir = "web_content"

// ExeSuffix returns the executable suffix of the host platform.
func ExeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// CommitResult lists what ended up in the output slot.
type CommitResult struct {
	Slot        *OutputSlot
	BinaryPath  string
	ContentPath string // empty in URL mode
}

// Commit verifies the produced binary and copies the original source into
// the slot for reference. It refuses to run for a failed bundle.
func Commit(ctx context.Context, slot *OutputSlot, req *PackagingRequest, result *BundleResult, exeSuffix string) (*CommitResult, error) {
	if result == nil {
		return nil, &BundleError{ExitCode: -1, Stderr: "no bundle result"}
	}
	if result.ExitCode != 0 {
		return nil, &BundleError{ExitCode: result.ExitCode, Stderr: result.Stderr}
	}

	binary := filepath.Join(slot.Path, ArtifactName(req.WindowTitle)+exeSuffix)
	info, err := os.Stat(binary)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &IOError{Op: "locating built binary", Err: err}
		}
		return nil, &IOError{Op: "checking built binary", Err: err}
	}
	if info.IsDir() {
		return nil, &IOError{Op: "locating built binary", Err: errors.New(binary + " is a directory")}
	}

	out := &CommitResult{Slot: slot, BinaryPath: binary}

	switch req.Mode {
	case ModeFile:
		dst := filepath.Join(slot.Path, filepath.Base(req.Source))
		if samePath(dst, binary) {
			return nil, &IOError{Op: "copying source file", Err: fmt.Errorf("%s would overwrite the built binary", filepath.Base(dst))}
		}
		if err := wpfs.CopyFile(req.Source, dst); err != nil {
			return nil, &IOError{Op: "copying source file", Err: err}
		}
		out.ContentPath = dst
	case ModeFolder:
		dst := filepath.Join(slot.Path, WebContentDir)
		if samePath(dst, binary) {
			return nil, &IOError{Op: "copying source folder", Err: fmt.Errorf("%s would overwrite the built binary", WebContentDir)}
		}
		if _, err := wpfs.CopyTree(ctx, req.Source, dst, nil, 0); err != nil {
			return nil, &IOError{Op: "copying source folder", Err: err}
		}
		out.ContentPath = dst
	}

	return out, nil
}

// samePath compares slot entries the way the host filesystem does; Windows
// and macOS default to case-insensitive names.
func samePath(a, b string) bool {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
