package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the tool configuration for webpkg.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	StatePath  string           `toml:"state_path"` // user state JSON (recent sources, last choices)
	OutputDir  string           `toml:"output_dir"` // default output root
	Bundler    BundlerConfig    `toml:"bundler"`
	Staging    StagingConfig    `toml:"staging"`
	Database   DatabaseConfig   `toml:"database"`
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// BundlerConfig configures the external bundler process.
type BundlerConfig struct {
	Command   string   `toml:"command"`              // default "pyinstaller"
	Timeout   string   `toml:"timeout,omitempty"`    // Go duration; empty or "0" disables
	ExtraArgs []string `toml:"extra_args,omitempty"` // appended before the descriptor path
	ExeSuffix *string  `toml:"exe_suffix,omitempty"` // unset means the host default
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (b BundlerConfig) TimeoutDuration() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid bundler timeout %q: %w", b.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid bundler timeout %q: must not be negative", b.Timeout)
	}
	return d, nil
}

// StagingConfig configures the scratch area used while building.
type StagingConfig struct {
	Dir         string   `toml:"dir,omitempty"`    // empty means the OS temp directory
	Concurrency int      `toml:"concurrency"`      // parallel copies for folder sources
	Ignore      []string `toml:"ignore,omitempty"` // patterns skipped in folder sources
}

// DatabaseConfig represents configuration for the run ledger.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// VaultConfig configures where built artifacts are published.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
// An empty Type disables publishing.
type VaultConfig struct {
	Type   string `toml:"type"` // "", "memory", "filesystem" or "s3"
	Name   string `toml:"name,omitempty"`
	Prefix string `toml:"prefix,omitempty"` // key prefix for published artifacts

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // S3-compatible services; enables path-style
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// Enabled reports whether a vault is configured.
func (v VaultConfig) Enabled() bool { return v.Type != "" }

// EncryptionConfig holds paths to the age key pair used for published artifacts.
type EncryptionConfig struct {
	Enabled        bool   `toml:"enabled"`
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a Config rooted at baseDir with default values.
func NewConfig(baseDir string) *Config {
	cfg := &Config{BaseDir: baseDir}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with values derived from BaseDir.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.BaseDir, "log")
	}
	if c.StatePath == "" {
		c.StatePath = filepath.Join(c.BaseDir, "state.json")
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "Pack")
	}
	if c.Bundler.Command == "" {
		c.Bundler.Command = "pyinstaller"
	}
	if c.Staging.Concurrency <= 0 {
		c.Staging.Concurrency = 4
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.DataDir == "" {
		c.Database.DataDir = filepath.Join(c.BaseDir, "db")
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = "age"
	}
	if c.Encryption.PublicKeyPath == "" {
		c.Encryption.PublicKeyPath = filepath.Join(c.BaseDir, "keys", "webpkg.pub")
	}
	if c.Encryption.PrivateKeyPath == "" {
		c.Encryption.PrivateKeyPath = filepath.Join(c.BaseDir, "keys", "webpkg.key")
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config at path and fills defaults. A missing file yields
// NewConfig(baseDir). A file without base_dir inherits baseDir.
func Load(path, baseDir string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewConfig(baseDir), nil
		}
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = baseDir
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
