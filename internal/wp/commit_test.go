package wp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"webpkg/internal/testutil"
	"webpkg/internal/wp"
)

func newSlot(t *testing.T) *wp.OutputSlot {
	t.Helper()
	slot, err := wp.Allocate(t.TempDir())
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	return slot
}

func writeBinary(t *testing.T, slot *wp.OutputSlot, title string) string {
	t.Helper()
	path := filepath.Join(slot.Path, wp.ArtifactName(title))
	testutil.WriteFile(t, path, "binary")
	return path
}

func TestCommit(t *testing.T) {
	ok := &wp.BundleResult{ExitCode: 0}

	t.Run("missing binary is an IOError", func(t *testing.T) {
		t.Parallel()
		slot := newSlot(t)
		req := &wp.PackagingRequest{Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "My App"}

		_, err := wp.Commit(context.Background(), slot, req, ok, "")
		var ioErr *wp.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("Commit() error = %v, want *wp.IOError", err)
		}
	})

	t.Run("non-zero exit is refused", func(t *testing.T) {
		t.Parallel()
		slot := newSlot(t)
		req := &wp.PackagingRequest{Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "My App"}

		_, err := wp.Commit(context.Background(), slot, req, &wp.BundleResult{ExitCode: 2, Stderr: "boom"}, "")
		var bErr *wp.BundleError
		if !errors.As(err, &bErr) || bErr.ExitCode != 2 {
			t.Fatalf("Commit() error = %v, want *wp.BundleError with code 2", err)
		}
	})

	t.Run("url mode commits only the binary", func(t *testing.T) {
		t.Parallel()
		slot := newSlot(t)
		binary := writeBinary(t, slot, "My App")
		req := &wp.PackagingRequest{Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "My App"}

		res, err := wp.Commit(context.Background(), slot, req, ok, "")
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if res.BinaryPath != binary || res.ContentPath != "" {
			t.Errorf("Commit() = %+v", res)
		}
		entries, _ := os.ReadDir(slot.Path)
		if len(entries) != 1 {
			t.Errorf("slot holds %d entries, want 1", len(entries))
		}
	})

	t.Run("file mode copies the original file", func(t *testing.T) {
		t.Parallel()
		src := filepath.Join(t.TempDir(), "page.html")
		testutil.WriteFile(t, src, "<p>original</p>")
		slot := newSlot(t)
		writeBinary(t, slot, "Page")
		req := &wp.PackagingRequest{Mode: wp.ModeFile, Source: src, WindowTitle: "Page"}

		res, err := wp.Commit(context.Background(), slot, req, ok, "")
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if got := testutil.ReadFile(t, filepath.Join(slot.Path, "page.html")); got != "<p>original</p>" {
			t.Errorf("copied content = %q", got)
		}
		if res.ContentPath != filepath.Join(slot.Path, "page.html") {
			t.Errorf("ContentPath = %q", res.ContentPath)
		}
	})

	t.Run("folder mode copies the tree under web_content", func(t *testing.T) {
		t.Parallel()
		src := t.TempDir()
		testutil.WriteTree(t, src, map[string]string{"index.html": "i", "js/app.js": "j"})
		slot := newSlot(t)
		writeBinary(t, slot, "Site")
		req := &wp.PackagingRequest{Mode: wp.ModeFolder, Source: src, WindowTitle: "Site"}

		if _, err := wp.Commit(context.Background(), slot, req, ok, ""); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		for rel, want := range map[string]string{"index.html": "i", "js/app.js": "j"} {
			got := testutil.ReadFile(t, filepath.Join(slot.Path, wp.WebContentDir, filepath.FromSlash(rel)))
			if got != want {
				t.Errorf("%s = %q, want %q", rel, got, want)
			}
		}
	})

	t.Run("source named like the binary is refused", func(t *testing.T) {
		t.Parallel()
		src := filepath.Join(t.TempDir(), "viewer")
		testutil.WriteFile(t, src, "<html>page</html>")
		slot := newSlot(t)
		testutil.WriteFile(t, filepath.Join(slot.Path, "viewer"), "ELF-BINARY")
		req := &wp.PackagingRequest{Mode: wp.ModeFile, Source: src, WindowTitle: "viewer"}

		_, err := wp.Commit(context.Background(), slot, req, ok, "")
		var ioErr *wp.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("Commit() error = %v, want *wp.IOError", err)
		}
		if got := testutil.ReadFile(t, filepath.Join(slot.Path, "viewer")); got != "ELF-BINARY" {
			t.Errorf("binary overwritten with %q", got)
		}
	})

	t.Run("binary named web_content is refused in folder mode", func(t *testing.T) {
		t.Parallel()
		src := t.TempDir()
		testutil.WriteTree(t, src, map[string]string{"index.html": "i"})
		slot := newSlot(t)
		writeBinary(t, slot, wp.WebContentDir)
		req := &wp.PackagingRequest{Mode: wp.ModeFolder, Source: src, WindowTitle: wp.WebContentDir}

		_, err := wp.Commit(context.Background(), slot, req, ok, "")
		var ioErr *wp.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("Commit() error = %v, want *wp.IOError", err)
		}
	})

	t.Run("exe suffix is part of the expected name", func(t *testing.T) {
		t.Parallel()
		slot := newSlot(t)
		testutil.WriteFile(t, filepath.Join(slot.Path, "Tool.exe"), "binary")
		req := &wp.PackagingRequest{Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "Tool"}

		if _, err := wp.Commit(context.Background(), slot, req, ok, ".exe"); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if _, err := wp.Commit(context.Background(), slot, req, ok, ""); err == nil {
			t.Error("Commit() without suffix should not find Tool.exe")
		}
	})
}
