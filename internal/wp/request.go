package wp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Window bounds and defaults for the generated application.
const (
	MinWindowWidth  = 400
	MinWindowHeight = 300

	DefaultWindowTitle  = "My Web App"
	DefaultWindowWidth  = 1024
	DefaultWindowHeight = 768
)

// PackagingRequest holds everything the pipeline needs for one run.
type PackagingRequest struct {
	Mode         Mode
	Source       string // URL, or path to an HTML file or asset folder
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	OutputRoot   string
	IconPath     string // optional
}

// Validate checks the request before any staging happens.
// FILE and FOLDER sources are checked against the filesystem.
func (r *PackagingRequest) Validate() error {
	if !r.Mode.Valid() {
		return &ValidationError{Field: "mode", Msg: fmt.Sprintf("unknown mode %q", r.Mode)}
	}
	if strings.TrimSpace(r.Source) == "" {
		return &ValidationError{Field: "source", Msg: "source must not be empty"}
	}
	if !utf8.ValidString(r.Source) {
		return &ValidationError{Field: "source", Msg: "source is not valid UTF-8"}
	}

	switch r.Mode {
	case ModeFile:
		info, err := os.Stat(r.Source)
		if err != nil {
			return sourceStatError(r.Source, "file", err)
		}
		if info.IsDir() {
			return &ValidationError{Field: "source", Msg: fmt.Sprintf("%s is a directory, not a file", r.Source)}
		}
	case ModeFolder:
		info, err := os.Stat(r.Source)
		if err != nil {
			return sourceStatError(r.Source, "folder", err)
		}
		if !info.IsDir() {
			return &ValidationError{Field: "source", Msg: fmt.Sprintf("%s is not a folder", r.Source)}
		}
	}

	if strings.TrimSpace(r.WindowTitle) == "" {
		return &ValidationError{Field: "window title", Msg: "title must not be empty"}
	}
	if !utf8.ValidString(r.WindowTitle) {
		return &ValidationError{Field: "window title", Msg: "title is not valid UTF-8"}
	}
	if r.WindowWidth < MinWindowWidth || r.WindowHeight < MinWindowHeight {
		return &ValidationError{
			Field: "window size",
			Msg:   fmt.Sprintf("%dx%d is smaller than %dx%d", r.WindowWidth, r.WindowHeight, MinWindowWidth, MinWindowHeight),
		}
	}
	if strings.TrimSpace(r.OutputRoot) == "" {
		return &ValidationError{Field: "output root", Msg: "output directory must not be empty"}
	}
	return nil
}

func sourceStatError(path, kind string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &ValidationError{Field: "source", Msg: fmt.Sprintf("%s does not exist: %s", kind, path)}
	}
	return &ValidationError{Field: "source", Msg: err.Error()}
}

// ParseDimensions parses raw width and height input.
func ParseDimensions(width, height string) (int, int, error) {
	w, err := strconv.Atoi(strings.TrimSpace(width))
	if err != nil {
		return 0, 0, &ValidationError{Field: "window size", Msg: fmt.Sprintf("width must be a number, got %q", width)}
	}
	h, err := strconv.Atoi(strings.TrimSpace(height))
	if err != nil {
		return 0, 0, &ValidationError{Field: "window size", Msg: fmt.Sprintf("height must be a number, got %q", height)}
	}
	return w, h, nil
}
