package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"webpkg/internal/wp"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// Artifacts are stored under an artifacts directory, keyed by their
// slash-separated key:
//
//	<root>/
//	  artifacts/
//	    <prefix>/<ordinal>-<run id>/<binary>
type FileSystemVault struct {
	name         string
	root         string
	artifactsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	artifactsDir := filepath.Join(root, "artifacts")
	if err := os.MkdirAll(artifactsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	return &FileSystemVault{
		name:         name,
		root:         root,
		artifactsDir: artifactsDir,
	}, nil
}

// PutArtifact stores an artifact under key, replacing any earlier content.
func (v *FileSystemVault) PutArtifact(key string, r io.Reader, size int64) error {
	destPath, err := v.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return v.writeFile(destPath, r, size)
}

// GetArtifact writes the artifact stored under key to w.
func (v *FileSystemVault) GetArtifact(key string, w io.Writer) error {
	srcPath, err := v.pathFor(key)
	if err != nil {
		return err
	}
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("artifact not found: %s", key)
		}
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	info, err = os.Stat(v.artifactsDir)
	if err != nil {
		return fmt.Errorf("vault directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.artifactsDir)
	}
	return nil
}

func (v *FileSystemVault) pathFor(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(v.artifactsDir, filepath.FromSlash(key)), nil
}

// writeFile writes data from r to destPath via a temp file and rename.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ wp.Vault = (*FileSystemVault)(nil)
