package fs

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Exclusions keeps files of a FOLDER source out of the staged copy.
//
// A pattern containing a slash is matched with path.Match against the
// slash-separated path relative to the folder. Any other pattern is matched
// against each element of that path, so "node_modules" drops the whole
// directory and "*.psd" drops matching files at any depth. The zero value
// and a nil *Exclusions exclude nothing.
type Exclusions struct {
	byPath    []string
	byElement []string
}

// ParseExclusions validates patterns and returns the resulting set. Blank
// patterns are skipped.
func ParseExclusions(patterns []string) (*Exclusions, error) {
	e := &Exclusions{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = strings.Trim(filepath.ToSlash(p), "/")
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", p, err)
		}
		if strings.Contains(p, "/") {
			e.byPath = append(e.byPath, p)
		} else {
			e.byElement = append(e.byElement, p)
		}
	}
	return e, nil
}

// Empty reports whether nothing is excluded.
func (e *Exclusions) Empty() bool {
	return e == nil || len(e.byPath)+len(e.byElement) == 0
}

// Excludes reports whether rel, a path relative to the folder root, is
// excluded. Excluding a directory excludes everything below it.
func (e *Exclusions) Excludes(rel string) bool {
	if e.Empty() {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range e.byPath {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
	}
	for _, elem := range strings.Split(rel, "/") {
		for _, p := range e.byElement {
			if ok, _ := path.Match(p, elem); ok {
				return true
			}
		}
	}
	return false
}
