package wp

import "fmt"

// Mode selects what kind of source a packaging request wraps.
type Mode string

const (
	ModeURL    Mode = "url"
	ModeFile   Mode = "file"
	ModeFolder Mode = "folder"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeURL, ModeFile, ModeFolder:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }

// ParseMode converts a raw mode name into a Mode.
func ParseMode(raw string) (Mode, error) {
	m := Mode(raw)
	if !m.Valid() {
		return "", &ValidationError{Field: "mode", Msg: fmt.Sprintf("unknown mode %q (want url, file or folder)", raw)}
	}
	return m, nil
}
