package vault

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"webpkg/internal/wp"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It is safe for concurrent use and is mainly useful in tests.
type MemoryVault struct {
	name      string
	artifacts map[string][]byte
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		artifacts: make(map[string][]byte),
	}
}

// PutArtifact stores an artifact under key, replacing any earlier content.
func (m *MemoryVault) PutArtifact(key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[key] = data
	return nil
}

// GetArtifact writes the artifact stored under key to w.
func (m *MemoryVault) GetArtifact(key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.artifacts[key]
	if !ok {
		return fmt.Errorf("artifact not found: %s", key)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryVault) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.artifacts))
	for k := range m.artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ wp.Vault = (*MemoryVault)(nil)
