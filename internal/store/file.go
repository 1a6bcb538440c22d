package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore — хранилище поверх локальной файловой системы.
type FileStore struct {
	perm os.FileMode
}

var _ Store = (*FileStore)(nil)

// NewFileStore создаёт FileStore.
func NewFileStore() *FileStore {
	return &FileStore{perm: 0o644}
}

func (f *FileStore) Exists(_ context.Context, loc string) (bool, error) {
	_, err := os.Stat(filePath(loc))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *FileStore) Delete(_ context.Context, loc string) error {
	err := os.Remove(filePath(loc))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileStore) Upload(_ context.Context, localPath, loc string) error {
	return f.copyAtomic(localPath, filePath(loc))
}

func (f *FileStore) Download(_ context.Context, loc, localPath string) error {
	err := f.copyAtomic(filePath(loc), localPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return err
}

// copyAtomic копирует src в dst через временный файл в директории dst.
func (f *FileStore) copyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, f.perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}

func filePath(loc string) string {
	return filepath.FromSlash(strings.TrimPrefix(loc, "file://"))
}
