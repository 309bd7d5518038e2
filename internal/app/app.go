package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"webpkg/internal/bundler"
	"webpkg/internal/config"
	"webpkg/internal/database"
	"webpkg/internal/encryption"
	"webpkg/internal/model"
	"webpkg/internal/staging"
	"webpkg/internal/state"
	"webpkg/internal/vault"
	"webpkg/internal/wp"
)

// Options adjust how a WPApp is wired. The zero value is what the CLI uses,
// apart from LogEcho.
type Options struct {
	// LogEcho receives a copy of every log line. Nil means the log file only.
	LogEcho io.Writer

	Clock wp.Clock
	IDs   wp.IDGenerator

	// Bundler, Vault and Encryptor replace the configured ones.
	Bundler   wp.Bundler
	Vault     wp.Vault
	Encryptor wp.Encryptor
}

// WPApp is the application layer between the CLI and WPService.
// It constructs all dependencies from config, keeps the user state in
// memory, and manages the DB and log file lifecycle on Close.
type WPApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	store     *state.Store
	user      state.UserConfig
	vault     wp.Vault
	encryptor wp.Encryptor
	bundler   wp.Bundler
	exeSuffix string
	clock     wp.Clock
	ids       wp.IDGenerator
	handler   *wpHandler
	logger    wp.Logger
	logFile   *os.File
}

// NewWPApp creates a fully wired WPApp from the given config.
// The caller must call Close when done.
func NewWPApp(ctx context.Context, cfg *config.Config, opts Options) (*WPApp, error) {
	clock := opts.Clock
	if clock == nil {
		clock = wp.RealClock{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = wp.UUIDGenerator{}
	}

	handler, logFile, err := newLogger(cfg.LogDir, ids.New(), opts.LogEcho)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slog.New(handler)}

	a := &WPApp{
		cfg:       cfg,
		clock:     clock,
		ids:       ids,
		handler:   handler,
		logger:    logger,
		logFile:   logFile,
		bundler:   opts.Bundler,
		exeSuffix: bundler.ExeSuffix(cfg.Bundler),
	}

	if a.bundler == nil {
		// validates the bundler section up front; each run builds its own
		if _, err := bundler.NewBundlerFromConfig(cfg.Bundler, logger); err != nil {
			a.closeLog()
			return nil, err
		}
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("creating database: %w", err)
	}
	a.db = db
	if err := a.migrate(); err != nil {
		a.abort()
		return nil, err
	}

	a.store = state.NewStore(cfg.StatePath, state.Defaults(cfg.OutputDir), logger)
	user, err := a.store.Load()
	if err != nil {
		a.abort()
		return nil, fmt.Errorf("loading user config: %w", err)
	}
	a.user = user

	a.vault = opts.Vault
	if a.vault == nil && cfg.Vault.Enabled() {
		v, err := vault.NewVaultFromConfig(ctx, cfg.Vault)
		if err != nil {
			a.abort()
			return nil, fmt.Errorf("creating vault: %w", err)
		}
		a.vault = v
	}

	a.encryptor = opts.Encryptor
	if a.vault != nil && a.encryptor == nil && cfg.Encryption.Enabled {
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			a.abort()
			return nil, fmt.Errorf("creating encryptor: %w", err)
		}
		if !enc.IsConfigured() {
			a.abort()
			return nil, fmt.Errorf("encryption is enabled but no keys exist: run 'webpkg config keys init'")
		}
		a.encryptor = enc
	}

	return a, nil
}

// migrate brings the ledger schema to the version this binary expects. A
// schema that is dirty or newer than the binary is an error.
func (a *WPApp) migrate() error {
	err := a.db.CheckMigrations()
	if err == nil {
		return nil
	}
	a.logger.Info("migrating run ledger", "reason", err)
	if err := a.db.MigrateUp(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	if err := a.db.CheckMigrations(); err != nil {
		return fmt.Errorf("checking database schema: %w", err)
	}
	return nil
}

// Package runs one packaging request and records it in the run ledger.
//
// On success the source is added to the recent list, the chosen mode and
// output root are remembered, and the binary is published when a vault is
// configured. A publish failure is returned as an error together with the
// result, since the local build is complete.
func (a *WPApp) Package(ctx context.Context, req *wp.PackagingRequest) (*wp.Result, error) {
	runID := a.ids.New()
	logger := &slogAdapter{l: slog.New(a.handler.forRun(runID))}

	run := newRun(runID, req, a.clock.Now())
	if err := a.db.CreateRun(run); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	logger.Info("packaging started", "mode", req.Mode, "source", req.Source, "title", req.WindowTitle)

	svc, err := a.newService(logger)
	if err != nil {
		return nil, a.finish(run, err, logger)
	}

	res, err := svc.Package(ctx, req)
	if err != nil {
		return nil, a.finish(run, err, logger)
	}

	run.SlotPath = res.Slot.Path
	run.Ordinal = res.Slot.Ordinal
	run.Message = res.Commit.BinaryPath
	a.recordUse(req, logger)

	if a.vault != nil {
		key, pubErr := a.publish(run, res.Commit.BinaryPath, logger)
		if pubErr != nil {
			return res, a.finish(run, fmt.Errorf("publishing artifact: %w", pubErr), logger)
		}
		run.ArtifactKey = key
		res.PublishedKey = key
	}

	return res, a.finish(run, nil, logger)
}

func (a *WPApp) newService(logger wp.Logger) (*wp.WPService, error) {
	b := a.bundler
	if b == nil {
		pi, err := bundler.NewBundlerFromConfig(a.cfg.Bundler, logger)
		if err != nil {
			return nil, err
		}
		b = pi
	}
	stager := staging.NewStagerFromConfig(a.cfg.Staging, logger)
	return wp.NewWPService(stager, b, logger, a.clock, wp.Options{
		ScratchRoot: a.cfg.Staging.Dir,
		ExeSuffix:   a.exeSuffix,
	}), nil
}

// finish stamps and stores the run outcome and returns err. A ledger write
// failure is only returned when the run itself succeeded.
func (a *WPApp) finish(run *model.Run, err error, logger wp.Logger) error {
	wp.Finish(run, err, a.clock.Now())
	if ferr := a.db.FinishRun(run); ferr != nil {
		logger.Error("failed to record run outcome", "error", ferr)
		if err == nil {
			return fmt.Errorf("recording run outcome: %w", ferr)
		}
	}
	return err
}

func (a *WPApp) recordUse(req *wp.PackagingRequest, logger wp.Logger) {
	user := state.RecordUse(a.user, req.Source, req.Mode, a.clock.Now())
	user.LastMode = req.Mode
	user.LastOutputDir = req.OutputRoot
	a.user = user

	// losing the recent list is not worth failing a finished build over
	if err := a.store.Save(user); err != nil {
		logger.Warn("failed to save user config", "path", a.store.Path(), "error", err)
	}
}

// publish uploads the committed binary, encrypting it first when an
// encryptor is configured.
func (a *WPApp) publish(run *model.Run, binaryPath string, logger wp.Logger) (string, error) {
	path := binaryPath
	if a.encryptor != nil {
		if dir := a.cfg.Staging.Dir; dir != "" {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return "", fmt.Errorf("creating scratch root: %w", err)
			}
		}
		encPath, _, err := encryption.EncryptFile(a.encryptor, binaryPath, a.cfg.Staging.Dir)
		if err != nil {
			return "", fmt.Errorf("encrypting artifact: %w", err)
		}
		defer os.Remove(encPath)
		path = encPath
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	key := artifactKey(a.cfg.Vault.Prefix, run, binaryPath, a.encryptor != nil)
	if err := a.vault.PutArtifact(key, f, info.Size()); err != nil {
		return "", err
	}
	logger.Info("artifact published", "key", key, "size", info.Size(), "encrypted", a.encryptor != nil)
	return key, nil
}

// RecentSources returns the recent sources, most recent first.
func (a *WPApp) RecentSources() []state.RecentSourceEntry {
	return append([]state.RecentSourceEntry(nil), a.user.RecentSources...)
}

// UserConfig returns a snapshot of the current user state.
func (a *WPApp) UserConfig() state.UserConfig {
	return a.user.Clone()
}

// History returns up to limit ledger runs, newest first.
func (a *WPApp) History(limit int) ([]*model.Run, error) {
	return a.db.ListRuns(limit)
}

// Run returns the ledger record with the given run ID.
func (a *WPApp) Run(runID string) (*model.Run, error) {
	run, err := a.db.FindRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no run with id %s", runID)
	}
	return run, nil
}

// FetchArtifact writes the published artifact stored under key to w. Keys
// ending in the encrypted suffix are decrypted with the private key unlocked
// by passphrase.
func (a *WPApp) FetchArtifact(key string, w io.Writer, passphrase string) error {
	if a.vault == nil {
		return fmt.Errorf("no vault configured")
	}
	a.logger.Info("fetching artifact", "key", key)
	if !strings.HasSuffix(key, encryption.EncryptedSuffix) {
		return a.vault.GetArtifact(key, w)
	}

	enc := a.encryptor
	if enc == nil {
		e, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
		enc = e
	}
	dc, err := enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(a.vault.GetArtifact(key, pw))
	}()
	if err := dc.Decrypt(pr, w); err != nil {
		pr.CloseWithError(err)
		return err
	}
	return nil
}

// Close saves the user state and closes the database and log file.
func (a *WPApp) Close() error {
	var firstErr error

	if a.store != nil {
		if err := a.store.Save(a.user); err != nil {
			firstErr = fmt.Errorf("saving user config: %w", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	a.closeLog()
	return firstErr
}

// abort releases what NewWPApp opened so far without touching user state.
func (a *WPApp) abort() {
	if a.db != nil {
		a.db.Close()
	}
	a.closeLog()
}

func (a *WPApp) closeLog() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}
