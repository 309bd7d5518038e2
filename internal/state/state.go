// Package state holds the per-user settings blob: recent sources, the last
// chosen mode and output directory, and window size.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"webpkg/internal/wp"
)

// MaxRecentSources caps the recent sources list.
const MaxRecentSources = 10

// Default window settings for a fresh user config.
const (
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
)

// RecentSourceEntry is one recently packaged source.
type RecentSourceEntry struct {
	Source    string    `json:"source"`
	Mode      wp.Mode   `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// WindowSettings is the size of the packager's own window in the desktop
// front end. The CLI has no window; it loads and saves the value unchanged
// so a shared file keeps it.
type WindowSettings struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UserConfig is the persisted user state. Values are treated as snapshots:
// operations return a modified copy and never mutate their input.
type UserConfig struct {
	RecentSources  []RecentSourceEntry `json:"recentSources"`
	LastMode       wp.Mode             `json:"lastMode"`
	LastOutputDir  string              `json:"lastOutputDir"`
	WindowSettings WindowSettings      `json:"windowSettings"`
}

// Defaults returns the user config of a first run. outputDir is the
// default output root.
func Defaults(outputDir string) UserConfig {
	return UserConfig{
		RecentSources: []RecentSourceEntry{},
		LastMode:      wp.ModeURL,
		LastOutputDir: outputDir,
		WindowSettings: WindowSettings{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
	}
}

// Clone returns a deep copy of c.
func (c UserConfig) Clone() UserConfig {
	out := c
	out.RecentSources = append([]RecentSourceEntry{}, c.RecentSources...)
	return out
}

// RecordUse moves (source, mode) to the front of the recent list with
// timestamp now, dropping any earlier entry for the same pair and keeping
// at most MaxRecentSources entries. An empty source leaves the list as is.
func RecordUse(cfg UserConfig, source string, mode wp.Mode, now time.Time) UserConfig {
	out := cfg.Clone()
	if source == "" {
		return out
	}

	recent := make([]RecentSourceEntry, 0, MaxRecentSources)
	recent = append(recent, RecentSourceEntry{Source: source, Mode: mode, Timestamp: now.UTC()})
	for _, e := range cfg.RecentSources {
		if e.Source == source && e.Mode == mode {
			continue
		}
		if len(recent) == MaxRecentSources {
			break
		}
		recent = append(recent, e)
	}
	out.RecentSources = recent
	return out
}

// Decode parses raw JSON over defaults. Each key is decoded on its own:
// missing keys and keys whose value does not parse keep their default,
// windowSettings is merged field by field and unknown keys are ignored.
// Recent entries that do not parse are dropped. A lastMode that is not a
// known mode falls back to the default.
//
// The returned error lists every key that was rejected; the returned
// config is usable either way.
func Decode(raw []byte, defaults UserConfig) (UserConfig, error) {
	out := defaults.Clone()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, fmt.Errorf("parsing user config: %w", err)
	}

	var errs []error
	decodeKey := func(key string, v any) {
		data, ok := fields[key]
		if !ok {
			return
		}
		if err := json.Unmarshal(data, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	var recent []json.RawMessage
	if _, ok := fields["recentSources"]; ok {
		out.RecentSources = []RecentSourceEntry{}
	}
	decodeKey("recentSources", &recent)
	for i, data := range recent {
		if len(out.RecentSources) == MaxRecentSources {
			break
		}
		var e RecentSourceEntry
		if err := json.Unmarshal(data, &e); err != nil {
			errs = append(errs, fmt.Errorf("recentSources[%d]: %w", i, err))
			continue
		}
		out.RecentSources = append(out.RecentSources, e)
	}

	mode := out.LastMode
	decodeKey("lastMode", &mode)
	if mode.Valid() {
		out.LastMode = mode
	}

	dir := out.LastOutputDir
	decodeKey("lastOutputDir", &dir)
	out.LastOutputDir = dir

	var window map[string]json.RawMessage
	decodeKey("windowSettings", &window)
	for key, dst := range map[string]*int{
		"width":  &out.WindowSettings.Width,
		"height": &out.WindowSettings.Height,
	} {
		data, ok := window[key]
		if !ok {
			continue
		}
		n := *dst
		if err := json.Unmarshal(data, &n); err != nil {
			errs = append(errs, fmt.Errorf("windowSettings.%s: %w", key, err))
			continue
		}
		*dst = n
	}

	if len(errs) > 0 {
		return out, fmt.Errorf("parsing user config: %w", errors.Join(errs...))
	}
	return out, nil
}
