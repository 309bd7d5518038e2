package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"webpkg/internal/wp"
)

func TestBuildRequest(t *testing.T) {
	base := packFlags{title: "Docs", width: "1024", height: "768"}

	t.Run("url source is kept verbatim", func(t *testing.T) {
		req, err := buildRequest(wp.ModeURL, "https://example.com/app", base, "/out")
		if err != nil {
			t.Fatalf("buildRequest() error = %v", err)
		}
		if req.Source != "https://example.com/app" {
			t.Errorf("Source = %q", req.Source)
		}
		if req.OutputRoot != "/out" {
			t.Errorf("OutputRoot = %q, want default /out", req.OutputRoot)
		}
		if req.WindowWidth != 1024 || req.WindowHeight != 768 || req.WindowTitle != "Docs" {
			t.Errorf("window = %q %dx%d", req.WindowTitle, req.WindowWidth, req.WindowHeight)
		}
	})

	t.Run("file source and icon become absolute", func(t *testing.T) {
		f := base
		f.icon = "logo.png"
		req, err := buildRequest(wp.ModeFile, "page.html", f, "/out")
		if err != nil {
			t.Fatalf("buildRequest() error = %v", err)
		}
		if !filepath.IsAbs(req.Source) || !strings.HasSuffix(req.Source, "page.html") {
			t.Errorf("Source = %q, want absolute path", req.Source)
		}
		if !filepath.IsAbs(req.IconPath) {
			t.Errorf("IconPath = %q, want absolute path", req.IconPath)
		}
	})

	t.Run("explicit output wins", func(t *testing.T) {
		f := base
		f.output = "/elsewhere"
		req, err := buildRequest(wp.ModeURL, "https://example.com", f, "/out")
		if err != nil {
			t.Fatalf("buildRequest() error = %v", err)
		}
		if req.OutputRoot != "/elsewhere" {
			t.Errorf("OutputRoot = %q, want /elsewhere", req.OutputRoot)
		}
	})

	t.Run("empty folder source stays empty for validation", func(t *testing.T) {
		req, err := buildRequest(wp.ModeFolder, "  ", base, "/out")
		if err != nil {
			t.Fatalf("buildRequest() error = %v", err)
		}
		if req.Source != "  " {
			t.Errorf("Source = %q, want it untouched", req.Source)
		}
	})

	for _, dims := range [][2]string{{"wide", "768"}, {"1024", ""}} {
		t.Run("non-numeric size "+dims[0]+"x"+dims[1], func(t *testing.T) {
			f := base
			f.width, f.height = dims[0], dims[1]
			_, err := buildRequest(wp.ModeURL, "https://example.com", f, "/out")
			var ve *wp.ValidationError
			if !errors.As(err, &ve) || ve.Field != "window size" {
				t.Errorf("buildRequest() error = %v, want window size ValidationError", err)
			}
		})
	}
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name string
		mode wp.Mode
		last wp.Mode
		want wp.Mode
	}{
		{name: "explicit mode wins", mode: wp.ModeFile, last: wp.ModeFolder, want: wp.ModeFile},
		{name: "last mode is reused", last: wp.ModeFolder, want: wp.ModeFolder},
		{name: "unknown last mode falls back to url", last: wp.Mode("zip"), want: wp.ModeURL},
		{name: "no history falls back to url", want: wp.ModeURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveMode(tt.mode, tt.last); got != tt.want {
				t.Errorf("resolveMode(%q, %q) = %q, want %q", tt.mode, tt.last, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	res := &wp.Result{
		Slot:         &wp.OutputSlot{Path: "/out/3", Ordinal: 3},
		Commit:       &wp.CommitResult{BinaryPath: "/out/3/Docs", ContentPath: "/out/3/web_content"},
		PublishedKey: "builds/3-abc/Docs",
	}
	got := summarize(res)
	for _, want := range []string{"Slot:   /out/3", "Binary: /out/3/Docs", "Content: /out/3/web_content", "Published: builds/3-abc/Docs"} {
		if !strings.Contains(got, want) {
			t.Errorf("summarize() missing %q:\n%s", want, got)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("a\nb"); got != "a ..." {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine() = %q", got)
	}
}
