package wp

import "io"

// Encryptor encrypts published artifacts.
// Encryption needs only the public key. Decryption needs the passphrase
// that protects the private key.
type Encryptor interface {
	// Setup generates a key pair. The private key is stored encrypted with
	// passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a DecryptionContext.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
