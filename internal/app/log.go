package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogFileName is the log file written under the configured log directory.
const LogFileName = "webpkg.log"

// wpHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
type wpHandler struct {
	w     io.Writer
	runID string
	attrs []slog.Attr
}

func (h *wpHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *wpHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	line := fmt.Sprintf("%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf("\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf("\t%s=%v", a.Key, a.Value)
		return true
	})

	// one Write per record so concurrent copies never interleave mid-line
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *wpHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &wpHandler{
		w:     h.w,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *wpHandler) WithGroup(string) slog.Handler { return h }

// forRun returns a copy of h that tags records with runID.
func (h *wpHandler) forRun(runID string) *wpHandler {
	return &wpHandler{
		w:     h.w,
		runID: runID,
		attrs: append([]slog.Attr{}, h.attrs...),
	}
}

// newLogger creates a handler writing to logDir/webpkg.log and, when echo is
// non-nil, to echo as well. It returns the handler and the open log file.
func newLogger(logDir string, runID string, echo io.Writer) (*wpHandler, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if echo != nil {
		w = io.MultiWriter(f, echo)
	}
	return &wpHandler{w: w, runID: runID}, f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the wp.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
