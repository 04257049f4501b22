package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage implements ObjectStorage using the local filesystem.
// Object paths are slash-separated and relative to the base path.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: base path %s: %w", basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: base path %s is not a directory", basePath)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// localObject is an opened file with its size captured at open time.
type localObject struct {
	*os.File
	size int64
}

func (o *localObject) Size() int64 { return o.size }

// Open opens a file for reading.
func (l *LocalStorage) Open(ctx context.Context, objectPath string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrObjectNotFound, objectPath)
	}

	return &localObject{File: f, size: info.Size()}, nil
}

// Exists checks if a regular file exists at objectPath. Directories are prefixes, not objects.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// PrefixExists reports whether prefix is an existing directory.
func (l *LocalStorage) PrefixExists(ctx context.Context, prefix string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(l.fullPath(prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// ListObjects returns all object paths under the given prefix.
func (l *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchDir := l.fullPath(prefix)
	var objects []string

	err := filepath.Walk(searchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil // prefix doesn't exist, return empty list
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			objects = append(objects, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
	}

	return objects, nil
}

// fullPath returns the full filesystem path for an object.
func (l *LocalStorage) fullPath(objectPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectPath))
}
