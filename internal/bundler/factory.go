package bundler

import (
	"fmt"

	"webpkg/internal/config"
	"webpkg/internal/wp"
)

// NewBundlerFromConfig creates the bundler invoker described by cfg.
func NewBundlerFromConfig(cfg config.BundlerConfig, logger wp.Logger) (*PyInstaller, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("configuring bundler: %w", err)
	}
	return NewPyInstaller(Options{
		Command:   cfg.Command,
		Timeout:   timeout,
		ExtraArgs: cfg.ExtraArgs,
	}, logger), nil
}

// ExeSuffix returns the configured executable suffix, or the host default.
func ExeSuffix(cfg config.BundlerConfig) string {
	if cfg.ExeSuffix != nil {
		return *cfg.ExeSuffix
	}
	return wp.ExeSuffix()
}
