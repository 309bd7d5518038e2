package encryption

import (
	"fmt"
	"os"

	"webpkg/internal/wp"
)

// EncryptedSuffix is appended to the key of an encrypted artifact.
const EncryptedSuffix = ".age"

// EncryptFile encrypts src into a new temp file in dir and returns its path
// and size. The caller removes the file.
func EncryptFile(enc wp.Encryptor, src, dir string) (string, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, "webpkg-enc-*")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	outPath := out.Name()

	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		os.Remove(outPath)
		return "", 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return "", 0, fmt.Errorf("closing encrypted file: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		os.Remove(outPath)
		return "", 0, fmt.Errorf("stat encrypted file: %w", err)
	}
	return outPath, info.Size(), nil
}
