package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/filex"
	"github.com/natefinch/atomic"
)

// FileSystem stores blobs as files under a private root directory. The root
// is created on first use. Writes go through a temp file and a rename, so a
// crash never leaves a partial blob under its final name.
type FileSystem struct {
	root string

	mu    sync.Mutex
	ready bool
}

func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: root}
}

// Root returns the directory blobs are stored under.
func (s *FileSystem) Root() string {
	return s.root
}

func (s *FileSystem) ensureRoot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if _, err := filex.EnsureDir(s.root, ""); err != nil {
		return fmt.Errorf("failed to create blob root: %w", err)
	}
	s.ready = true
	return nil
}

func (s *FileSystem) full(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func (s *FileSystem) Put(ctx context.Context, p string, data []byte) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}

	if dir := path.Dir(p); dir != "." {
		if _, err := filex.EnsureDir(s.root, dir); err != nil {
			return fmt.Errorf("failed to create blob directory: %w", err)
		}
	}

	if err := atomic.WriteFile(s.full(p), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", p, err)
	}
	return nil
}

func (s *FileSystem) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ValidatePath(p); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.full(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", p, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", p, err)
	}
	return data, nil
}

func (s *FileSystem) Delete(ctx context.Context, p string) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.full(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", p, err)
	}
	return nil
}

func (s *FileSystem) List(ctx context.Context, prefix string) ([]string, error) {
	ok, err := filex.Exists(s.root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	out := []string{}
	err = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	sort.Strings(out)
	return out, nil
}
