package wp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// OutputSlot is the numbered destination folder for one packaging run.
type OutputSlot struct {
	Root    string
	Ordinal int
	Path    string
}

// NextOrdinal scans root and returns max(numeric directory children)+1.
// Entries whose name is not entirely decimal digits, and non-directories,
// are ignored. A missing root yields 1.
func NextOrdinal(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 1, nil
		}
		return 0, fmt.Errorf("reading output root: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() || !isDigits(entry.Name()) {
			continue
		}
		n, err := strconv.Atoi(entry.Name())
		if err != nil {
			// out of int range
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// Allocate creates root if needed and then creates a fresh slot directory
// at the next ordinal. If the chosen name already exists (for example a
// plain file called "5") the ordinal is bumped until creation succeeds.
//
// The scan is not safe against other processes allocating in the same root.
func Allocate(root string) (*OutputSlot, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, &IOError{Op: "creating output directory", Err: err}
	}

	ordinal, err := NextOrdinal(root)
	if err != nil {
		return nil, &IOError{Op: "scanning output directory", Err: err}
	}

	for {
		path := filepath.Join(root, strconv.Itoa(ordinal))
		err := os.Mkdir(path, 0755)
		if err == nil {
			return &OutputSlot{Root: root, Ordinal: ordinal, Path: path}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, &IOError{Op: "creating output slot", Err: err}
		}
		ordinal++
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
