package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Store — удалённое хранилище артефактов.
type Store interface {
	// Exists проверяет наличие объекта. Может вернуть временную ошибку.
	Exists(ctx context.Context, loc string) (bool, error)

	// Delete удаляет объект. Отсутствие объекта — не ошибка.
	Delete(ctx context.Context, loc string) error

	// Upload загружает локальный файл в loc.
	Upload(ctx context.Context, localPath, loc string) error

	// Download скачивает loc в локальный файл.
	Download(ctx context.Context, loc, localPath string) error
}

// New выбирает реализацию по схеме корня: s3:// — S3Store, иначе FileStore.
func New(root string) (Store, error) {
	switch {
	case strings.HasPrefix(root, S3Scheme+"://"):
		return NewS3(nil)
	case strings.HasPrefix(root, "file://"), !strings.Contains(root, "://"):
		return NewFileStore(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidLocation, root)
	}
}

// ResolveRoot приводит корень к виду, не зависящему от рабочей директории:
// s3:// возвращается как есть, локальный путь (в том числе file://)
// становится абсолютным. Worker запускается в своей рабочей директории,
// поэтому относительный корень там указывал бы в другое место.
func ResolveRoot(root string) (string, error) {
	switch {
	case strings.HasPrefix(root, S3Scheme+"://"):
		return root, nil
	case strings.HasPrefix(root, "file://"), !strings.Contains(root, "://"):
		abs, err := filepath.Abs(filePath(root))
		if err != nil {
			return "", fmt.Errorf("%w: resolve %q: %w", ErrInvalidLocation, root, err)
		}
		return abs, nil
	default:
		return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidLocation, root)
	}
}

// IsAbsRoot сообщает, что корень не зависит от рабочей директории.
func IsAbsRoot(root string) bool {
	if strings.HasPrefix(root, S3Scheme+"://") {
		return true
	}
	return filepath.IsAbs(filePath(root))
}
