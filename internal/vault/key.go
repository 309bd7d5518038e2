package vault

import (
	"fmt"
	"path"
	"strings"
)

// validateKey rejects keys that are empty, absolute, or climb out of the
// vault with "..". Keys always use forward slashes.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("artifact key is empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid artifact key: %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid artifact key: %q", key)
		}
	}
	return nil
}

// JoinKey builds an artifact key from a prefix and path elements.
// An empty prefix is dropped.
func JoinKey(prefix string, elems ...string) string {
	parts := make([]string, 0, len(elems)+1)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, elems...)
	return path.Join(parts...)
}
