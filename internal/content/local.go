package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hyperjump/lessonforge/internal/models"
)

// LocalStore keeps files under a directory that the HTTP server also serves statically.
type LocalStore struct {
	dir    string
	prefix string
}

// NewLocalStore creates dir if needed. URLs are built as prefix + "/" + key.
func NewLocalStore(dir, prefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &LocalStore{dir: dir, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

// Dir returns the root directory.
func (s *LocalStore) Dir() string { return s.dir }

// Prefix returns the URL path prefix the directory is served under.
func (s *LocalStore) Prefix() string { return s.prefix }

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("invalid content key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean[1:])), nil
}

// Put writes data to a new file. An existing file is never overwritten.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) (models.FileRef, error) {
	if err := ctx.Err(); err != nil {
		return models.FileRef{}, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return models.FileRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return models.FileRef{}, fmt.Errorf("create directory for %s: %w", key, err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return models.FileRef{}, fmt.Errorf("%s: %w", key, ErrExists)
		}
		return models.FileRef{}, fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return models.FileRef{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return models.FileRef{}, fmt.Errorf("close %s: %w", key, err)
	}
	return models.FileRef{Path: key, URL: s.prefix + "/" + key}, nil
}

// Delete removes the file for key.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Usage reports the number of files and total bytes under the directory.
// A missing directory counts as empty.
func (s *LocalStore) Usage() (files int64, bytes int64, err error) {
	err = filepath.WalkDir(s.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		bytes += info.Size()
		return nil
	})
	return files, bytes, err
}
