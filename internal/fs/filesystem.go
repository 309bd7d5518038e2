package fs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// DefaultCopyConcurrency bounds parallel copies when no limit is given.
const DefaultCopyConcurrency = 4

// CopyFile copies a regular file from src to dst, creating parent
// directories as needed. The file mode and modification time are kept.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting modification time: %w", err)
	}
	return nil
}

// FindFiles walks root in lexical order and returns the relative paths of
// all regular files. Excluded files and directories are skipped; exclude
// may be nil. Symlinks, devices and other special files are skipped.
func FindFiles(root string, exclude *Exclusions) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		if exclude.Excludes(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

// CopyTree copies every file FindFiles reports under src into dst,
// preserving relative paths. Up to limit copies run at once; limit <= 0
// means DefaultCopyConcurrency. The returned relative paths are in walk
// order regardless of which copy finished first.
func CopyTree(ctx context.Context, src, dst string, exclude *Exclusions, limit int) ([]string, error) {
	files, err := FindFiles(src, exclude)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}
	if limit <= 0 {
		limit = DefaultCopyConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return CopyFile(filepath.Join(src, rel), filepath.Join(dst, rel))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
