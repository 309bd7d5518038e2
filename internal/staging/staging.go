package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	wpfs "webpkg/internal/fs"
	"webpkg/internal/icon"
	"webpkg/internal/wp"
)

// Layout of the scratch directory.
const (
	ContentDirName = "content"
	IconFileName   = "icon.ico"
)

// IconConverter converts an image file into an ICO container.
type IconConverter interface {
	ConvertToICO(src, dst string) error
}

// Options tune a Stager.
type Options struct {
	// Concurrency bounds parallel file copies in FOLDER mode.
	Concurrency int

	// Exclude holds glob patterns kept out of FOLDER copies. Empty means
	// every file is copied.
	Exclude []string
}

// Stager implements wp.Stager on the local filesystem.
type Stager struct {
	icons  IconConverter
	logger wp.Logger
	opts   Options
}

var _ wp.Stager = (*Stager)(nil)

// NewStager creates a Stager. A nil converter means icon.NewConverter().
func NewStager(icons IconConverter, logger wp.Logger, opts Options) *Stager {
	if icons == nil {
		icons = icon.NewConverter()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = wpfs.DefaultCopyConcurrency
	}
	return &Stager{icons: icons, logger: logger, opts: opts}
}

// Stage copies the request's content and icon into scratchDir.
//
// Content goes under scratchDir/content, the icon (if any) to
// scratchDir/icon.ico. Copy failures abort with a *wp.IOError. Icon
// failures are logged and staging continues without an icon.
func (s *Stager) Stage(ctx context.Context, req *wp.PackagingRequest, scratchDir string) (*wp.StagedInputs, error) {
	staged := &wp.StagedInputs{
		ScratchDir: scratchDir,
		ContentDir: filepath.Join(scratchDir, ContentDirName),
	}

	switch req.Mode {
	case wp.ModeFile:
		name := filepath.Base(req.Source)
		dst := filepath.Join(staged.ContentDir, name)
		if err := wpfs.CopyFile(req.Source, dst); err != nil {
			return nil, &wp.IOError{Op: "staging source file", Err: err}
		}
		staged.Files = []wp.StagedFile{{Name: name, Path: dst}}
		staged.Entry = name

	case wp.ModeFolder:
		exclude, err := wpfs.ParseExclusions(s.opts.Exclude)
		if err != nil {
			return nil, &wp.ValidationError{Field: "staging.ignore", Msg: err.Error()}
		}
		files, err := wpfs.CopyTree(ctx, req.Source, staged.ContentDir, exclude, s.opts.Concurrency)
		if err != nil {
			return nil, &wp.IOError{Op: "staging source folder", Err: err}
		}
		staged.Files = make([]wp.StagedFile, 0, len(files))
		for _, rel := range files {
			staged.Files = append(staged.Files, wp.StagedFile{
				Name: filepath.ToSlash(rel),
				Path: filepath.Join(staged.ContentDir, rel),
			})
		}
		s.logger.Debug("folder staged", "source", req.Source, "files", len(files))

	case wp.ModeURL:
		// the URL is carried into the launcher as-is

	default:
		return nil, &wp.ValidationError{Field: "mode", Msg: fmt.Sprintf("unknown mode %q", req.Mode)}
	}

	if req.IconPath != "" {
		staged.IconPath = s.stageIcon(req.IconPath, scratchDir)
	}
	return staged, nil
}

// stageIcon returns the staged icon path, or "" when the icon was skipped.
func (s *Stager) stageIcon(src, scratchDir string) string {
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		s.logger.Warn("icon not found, continuing without icon", "path", src)
		return ""
	}

	dst := filepath.Join(scratchDir, IconFileName)
	if icon.IsICO(src) {
		if err := wpfs.CopyFile(src, dst); err != nil {
			s.logger.Warn("copying icon failed, continuing without icon", "path", src, "error", err)
			return ""
		}
		return dst
	}

	if err := s.icons.ConvertToICO(src, dst); err != nil {
		s.logger.Warn("icon conversion failed, continuing without icon", "path", src, "error", err)
		os.Remove(dst)
		return ""
	}
	s.logger.Info("icon converted", "path", src)
	return dst
}
