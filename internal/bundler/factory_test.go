package bundler

import (
	"testing"
	"time"

	"webpkg/internal/config"
	"webpkg/internal/wp"
)

func TestNewBundlerFromConfig(t *testing.T) {
	t.Run("parses timeout", func(t *testing.T) {
		p, err := NewBundlerFromConfig(config.BundlerConfig{Command: "pyi", Timeout: "2m"}, wp.NewNopLogger())
		if err != nil {
			t.Fatalf("NewBundlerFromConfig() error = %v", err)
		}
		if p.opts.Timeout != 2*time.Minute || p.opts.Command != "pyi" {
			t.Errorf("opts = %+v", p.opts)
		}
	})

	t.Run("rejects bad timeout", func(t *testing.T) {
		if _, err := NewBundlerFromConfig(config.BundlerConfig{Timeout: "later"}, wp.NewNopLogger()); err == nil {
			t.Fatal("NewBundlerFromConfig() expected error")
		}
	})
}

func TestExeSuffix(t *testing.T) {
	if got := ExeSuffix(config.BundlerConfig{}); got != wp.ExeSuffix() {
		t.Errorf("ExeSuffix() = %q, want host default %q", got, wp.ExeSuffix())
	}
	empty := ""
	if got := ExeSuffix(config.BundlerConfig{ExeSuffix: &empty}); got != "" {
		t.Errorf("ExeSuffix() = %q, want empty override", got)
	}
}
