package wp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"webpkg/internal/staging"
	"webpkg/internal/testutil"
	"webpkg/internal/wp"
)

type svcFixture struct {
	svc     *wp.WPService
	bundler *testutil.FakeBundler
	logger  *testutil.RecordingLogger
	scratch string
	out     string
}

func newService(t *testing.T, title string) *svcFixture {
	t.Helper()
	logger := testutil.NewRecordingLogger()
	bundler := testutil.NewFakeBundler(title)
	scratch := filepath.Join(t.TempDir(), "scratch")
	svc := wp.NewWPService(
		staging.NewStager(nil, logger, staging.Options{}),
		bundler,
		logger,
		testutil.FixedClock(),
		wp.Options{ScratchRoot: scratch, ExeSuffix: wp.ExeSuffix()},
	)
	return &svcFixture{svc: svc, bundler: bundler, logger: logger, scratch: scratch, out: filepath.Join(t.TempDir(), "out")}
}

func scratchEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("reading scratch root: %v", err)
	}
	return len(entries)
}

func TestWPService_Package(t *testing.T) {
	t.Run("folder request produces a committed slot", func(t *testing.T) {
		t.Parallel()
		fx := newService(t, "Site Viewer")
		src := t.TempDir()
		testutil.WriteTree(t, src, map[string]string{"index.html": "<h1/>", "img/logo.png": "png"})

		req := &wp.PackagingRequest{
			Mode: wp.ModeFolder, Source: src, WindowTitle: "Site Viewer",
			WindowWidth: 1024, WindowHeight: 768, OutputRoot: fx.out,
		}
		res, err := fx.svc.Package(context.Background(), req)
		if err != nil {
			t.Fatalf("Package() error = %v\n%s", err, fx.logger)
		}

		if res.Slot.Ordinal != 1 {
			t.Errorf("Ordinal = %d, want 1", res.Slot.Ordinal)
		}
		if !testutil.Exists(res.Commit.BinaryPath) {
			t.Errorf("binary missing at %s", res.Commit.BinaryPath)
		}
		if got := testutil.ReadFile(t, filepath.Join(res.Slot.Path, wp.WebContentDir, "img", "logo.png")); got != "png" {
			t.Errorf("web_content copy = %q", got)
		}

		calls := fx.bundler.Calls()
		if len(calls) != 1 {
			t.Fatalf("bundler called %d times", len(calls))
		}
		if calls[0].OutputDir != res.Slot.Path {
			t.Errorf("bundler output dir = %q, want slot %q", calls[0].OutputDir, res.Slot.Path)
		}
		if !strings.Contains(calls[0].Descriptor, `"index.html"`) || !strings.Contains(calls[0].Descriptor, `"img/logo.png"`) {
			t.Errorf("descriptor missing data entries:\n%s", calls[0].Descriptor)
		}
		if !strings.Contains(calls[0].Launcher, "webview.create_window") {
			t.Errorf("launcher not written:\n%s", calls[0].Launcher)
		}
		if n := scratchEntries(t, fx.scratch); n != 0 {
			t.Errorf("scratch root holds %d entries after run", n)
		}
	})

	t.Run("bundler stderr is surfaced verbatim", func(t *testing.T) {
		t.Parallel()
		fx := newService(t, "App")
		fx.bundler.ExitCode = 1
		fx.bundler.Stderr = "missing module X"

		req := &wp.PackagingRequest{
			Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "App",
			WindowWidth: 800, WindowHeight: 600, OutputRoot: fx.out,
		}
		_, err := fx.svc.Package(context.Background(), req)
		if err == nil {
			t.Fatal("Package() expected error")
		}
		if !strings.Contains(err.Error(), "missing module X") {
			t.Errorf("error %q does not contain bundler stderr", err)
		}
		var bErr *wp.BundleError
		if !errors.As(err, &bErr) || bErr.Stderr != "missing module X" {
			t.Errorf("error = %#v, want *wp.BundleError", err)
		}
		if testutil.Exists(filepath.Join(fx.out, "1")) {
			t.Error("failed run left its slot behind")
		}
		if n := scratchEntries(t, fx.scratch); n != 0 {
			t.Errorf("scratch root holds %d entries after failure", n)
		}
	})

	t.Run("missing binary after success removes the slot", func(t *testing.T) {
		t.Parallel()
		fx := newService(t, "App")
		fx.bundler.BinaryName = ""

		req := &wp.PackagingRequest{
			Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "App",
			WindowWidth: 800, WindowHeight: 600, OutputRoot: fx.out,
		}
		_, err := fx.svc.Package(context.Background(), req)
		var ioErr *wp.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("Package() error = %v, want *wp.IOError", err)
		}
		if testutil.Exists(filepath.Join(fx.out, "1")) {
			t.Error("failed run left its slot behind")
		}
	})

	t.Run("validation failure touches nothing", func(t *testing.T) {
		t.Parallel()
		fx := newService(t, "App")

		req := &wp.PackagingRequest{
			Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "App",
			WindowWidth: 399, WindowHeight: 600, OutputRoot: fx.out,
		}
		_, err := fx.svc.Package(context.Background(), req)
		var vErr *wp.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Package() error = %v, want *wp.ValidationError", err)
		}
		if testutil.Exists(fx.out) {
			t.Error("output root created for an invalid request")
		}
		if len(fx.bundler.Calls()) != 0 {
			t.Error("bundler invoked for an invalid request")
		}
	})

	t.Run("bundler start failure removes the slot", func(t *testing.T) {
		t.Parallel()
		fx := newService(t, "App")
		fx.bundler.Err = &wp.BundleError{ExitCode: -1, Stderr: "executable file not found"}

		req := &wp.PackagingRequest{
			Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "App",
			WindowWidth: 800, WindowHeight: 600, OutputRoot: fx.out,
		}
		if _, err := fx.svc.Package(context.Background(), req); err == nil {
			t.Fatal("Package() expected error")
		}
		if testutil.Exists(filepath.Join(fx.out, "1")) {
			t.Error("failed run left its slot behind")
		}
	})

	t.Run("consecutive runs use increasing slots", func(t *testing.T) {
		t.Parallel()
		fx := newService(t, "App")
		req := &wp.PackagingRequest{
			Mode: wp.ModeURL, Source: "https://example.com", WindowTitle: "App",
			WindowWidth: 800, WindowHeight: 600, OutputRoot: fx.out,
		}
		for want := 1; want <= 3; want++ {
			res, err := fx.svc.Package(context.Background(), req)
			if err != nil {
				t.Fatalf("Package() #%d error = %v", want, err)
			}
			if res.Slot.Ordinal != want {
				t.Errorf("run %d got ordinal %d", want, res.Slot.Ordinal)
			}
		}
	})
}
