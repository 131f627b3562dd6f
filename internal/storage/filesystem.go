package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"obfuscator/pkg/platform/sentinel"
)

// FileStore serves file:// locators from a root directory. The container
// is a directory under root and the path is relative to it. All access goes
// through os.Root, so symlinks cannot lead outside the root either.
type FileStore struct {
	root string
	// resolved is root with symlinks evaluated.
	resolved string
}

func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", abs)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &FileStore{root: abs, resolved: resolved}, nil
}

func (s *FileStore) Fetch(ctx context.Context, container, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := s.relative(container, path)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(s.root)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}
	defer root.Close()

	data, err := root.ReadFile(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", objectName(container, path), sentinel.ErrNotFound)
		}
		return nil, s.failure(err, rel, "read file "+objectName(container, path))
	}
	return data, nil
}

// Put writes through a temporary file and a rename so readers never see a
// partial object.
func (s *FileStore) Put(ctx context.Context, container, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := s.relative(container, path)
	if err != nil {
		return err
	}
	root, err := os.OpenRoot(s.root)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer root.Close()

	dir := filepath.Dir(rel)
	if err := root.MkdirAll(dir, 0o750); err != nil {
		return s.failure(err, rel, "create directory")
	}

	tmp := filepath.Join(dir, ".obfuscator-"+uuid.NewString())
	f, err := root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return s.failure(err, rel, "create temp file")
	}
	defer root.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := root.Rename(tmp, rel); err != nil {
		return s.failure(err, rel, "rename into place")
	}
	return nil
}

func (s *FileStore) relative(container, path string) (string, error) {
	rel := filepath.Join(filepath.FromSlash(container), filepath.FromSlash(path))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("path %s escapes storage root: %w", objectName(container, path), sentinel.ErrForbidden)
	}
	return rel, nil
}

// failure reports err as forbidden when rel reaches outside the root through
// a symlink. os.Root does not export its escape error.
func (s *FileStore) failure(err error, rel, action string) error {
	if s.escapes(rel) {
		return fmt.Errorf("%s: path escapes storage root: %w", action, sentinel.ErrForbidden)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// escapes resolves the deepest existing ancestor of rel, or the target of a
// dangling symlink, and reports whether it lies outside the root.
func (s *FileStore) escapes(rel string) bool {
	p := filepath.Join(s.root, rel)
	for {
		if target, err := filepath.EvalSymlinks(p); err == nil {
			return !s.contains(target)
		}
		if target, err := os.Readlink(p); err == nil {
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(p), target)
			}
			if !s.contains(target) {
				return true
			}
		}
		parent := filepath.Dir(p)
		if parent == p || !s.contains(parent) {
			return false
		}
		p = parent
	}
}

func (s *FileStore) contains(p string) bool {
	for _, base := range []string{s.resolved, s.root} {
		if rel, err := filepath.Rel(base, p); err == nil && filepath.IsLocal(rel) {
			return true
		}
	}
	return false
}
