package wp_test

import (
	"errors"
	"path/filepath"
	"testing"

	"webpkg/internal/testutil"
	"webpkg/internal/wp"
)

func TestPackagingRequest_Validate(t *testing.T) {
	dir := t.TempDir()
	htmlFile := filepath.Join(dir, "index.html")
	testutil.WriteFile(t, htmlFile, "<html></html>")
	out := filepath.Join(dir, "out")

	valid := func(mode wp.Mode, source string) wp.PackagingRequest {
		return wp.PackagingRequest{
			Mode:         mode,
			Source:       source,
			WindowTitle:  "My App",
			WindowWidth:  800,
			WindowHeight: 600,
			OutputRoot:   out,
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *wp.PackagingRequest)
		base    wp.PackagingRequest
		wantErr string // expected Field, empty for success
	}{
		{name: "valid url", base: valid(wp.ModeURL, "https://example.com")},
		{name: "valid file", base: valid(wp.ModeFile, htmlFile)},
		{name: "valid folder", base: valid(wp.ModeFolder, dir)},
		{name: "minimum size", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.WindowWidth, r.WindowHeight = 400, 300
		}},
		{name: "empty source", base: valid(wp.ModeURL, ""), wantErr: "source"},
		{name: "blank source", base: valid(wp.ModeURL, "   "), wantErr: "source"},
		{name: "missing file", base: valid(wp.ModeFile, filepath.Join(dir, "nope.html")), wantErr: "source"},
		{name: "file mode with folder", base: valid(wp.ModeFile, dir), wantErr: "source"},
		{name: "missing folder", base: valid(wp.ModeFolder, filepath.Join(dir, "nope")), wantErr: "source"},
		{name: "folder mode with file", base: valid(wp.ModeFolder, htmlFile), wantErr: "source"},
		{name: "width 399", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.WindowWidth = 399
		}, wantErr: "window size"},
		{name: "height 299", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.WindowHeight = 299
		}, wantErr: "window size"},
		{name: "empty title", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.WindowTitle = ""
		}, wantErr: "window title"},
		{name: "empty output root", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.OutputRoot = ""
		}, wantErr: "output root"},
		{name: "unknown mode", base: valid(wp.Mode("zip"), "https://example.com"), wantErr: "mode"},
		{name: "non-utf8 title", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.WindowTitle = "caf\xe9"
		}, wantErr: "window title"},
		{name: "non-utf8 source", base: valid(wp.ModeURL, "https://example.com/caf\xe9"), wantErr: "source"},
		{name: "utf8 title", base: valid(wp.ModeURL, "https://example.com"), mutate: func(r *wp.PackagingRequest) {
			r.WindowTitle = "café"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.base
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var vErr *wp.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error = %v, want *wp.ValidationError", err)
			}
			if vErr.Field != tt.wantErr {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantErr)
			}
		})
	}
}

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		w, h    string
		wantW   int
		wantH   int
		wantErr bool
	}{
		{w: "1024", h: "768", wantW: 1024, wantH: 768},
		{w: " 800 ", h: "600", wantW: 800, wantH: 600},
		{w: "wide", h: "600", wantErr: true},
		{w: "800", h: "", wantErr: true},
		{w: "80.5", h: "600", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.w+"x"+tt.h, func(t *testing.T) {
			w, h, err := wp.ParseDimensions(tt.w, tt.h)
			if tt.wantErr {
				var vErr *wp.ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("ParseDimensions() error = %v, want *wp.ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDimensions() error = %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ParseDimensions() = %d, %d", w, h)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"url", "file", "folder"} {
		m, err := wp.ParseMode(raw)
		if err != nil {
			t.Errorf("ParseMode(%q) error = %v", raw, err)
		}
		if m.String() != raw {
			t.Errorf("ParseMode(%q) = %q", raw, m)
		}
	}
	if _, err := wp.ParseMode("URL"); err == nil {
		t.Error("ParseMode(URL) expected error")
	}
}
