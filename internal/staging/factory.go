package staging

import (
	"webpkg/internal/config"
	"webpkg/internal/icon"
	"webpkg/internal/wp"
)

// NewStagerFromConfig creates a Stager from the staging section of the config.
func NewStagerFromConfig(cfg config.StagingConfig, logger wp.Logger) *Stager {
	return NewStager(icon.NewConverter(), logger, Options{
		Concurrency: cfg.Concurrency,
		Exclude:     cfg.Ignore,
	})
}
