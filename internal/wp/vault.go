package wp

import "io"

// Vault stores published artifacts.
// Operations stream through io.Reader/io.Writer so a binary is never held
// in memory whole.
type Vault interface {
	// PutArtifact stores the content read from r under key.
	// size is the number of bytes that will be read from r.
	// Storing the same key twice replaces the earlier content.
	PutArtifact(key string, r io.Reader, size int64) error

	// GetArtifact writes the content stored under key to w.
	GetArtifact(key string, w io.Writer) error

	// ValidateSetup verifies that the vault is reachable and usable.
	ValidateSetup() error
}
