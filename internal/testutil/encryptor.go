package testutil

import (
	"webpkg/internal/encryption"
	"webpkg/internal/wp"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() wp.Encryptor {
	return encryption.NewTestEncryptor()
}
