// Package storage provides the byte sources partition files are read from.
package storage

import (
	"context"
	"errors"
	"io"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrOpenFailed     = errors.New("open failed")
	ErrListFailed     = errors.New("list failed")
)

// Object is an opened partition byte source. It supports both sequential and
// random access reads, so footer-indexed and streaming decoders can share it.
// Callers must Close every Object they open.
type Object interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer

	// Size returns the object's length in bytes.
	Size() int64
}

// ObjectStorage abstracts the object stores partition files live in.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Open opens an object for reading.
	// Returns ErrObjectNotFound if nothing exists at objectPath.
	Open(ctx context.Context, objectPath string) (Object, error)

	// Exists reports whether an object (not a prefix) exists at objectPath.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns all object paths under the given prefix.
	// Order is unspecified; enumerators impose their own.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// PrefixExists reports whether prefix names an existing directory-like
	// location, even one holding no objects.
	PrefixExists(ctx context.Context, prefix string) (bool, error)
}
