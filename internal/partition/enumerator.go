// Package partition enumerates the partition files of a logical table and
// reads them concurrently while preserving enumeration order.
package partition

import (
	"context"
	"log"
	"sort"
	"strings"

	lerrors "github.com/arkilian/partload/internal/errors"
	"github.com/arkilian/partload/internal/storage"
	"github.com/arkilian/partload/pkg/types"
)

// Source is one enumerated partition: its position in the table and the object it lives in.
type Source struct {
	// Ordinal is the partition's position; it fixes the table's partition order
	Ordinal int

	// Path is the object path of the partition file
	Path string
}

// Enumerator yields the ordered partition sources of a table.
type Enumerator interface {
	Enumerate(ctx context.Context, src types.TableSource) ([]Source, error)
}

// ListingEnumerator enumerates partitions by listing object storage.
// A URI naming a single object yields one partition; otherwise every object
// under the URI prefix carrying the table's partition suffix is a partition,
// ordered lexicographically by path. A URI naming neither an object nor an
// existing prefix is OBJECT_NOT_FOUND; an existing empty prefix yields none.
type ListingEnumerator struct {
	store storage.ObjectStorage
}

// NewListingEnumerator creates an enumerator over the given storage.
func NewListingEnumerator(store storage.ObjectStorage) *ListingEnumerator {
	return &ListingEnumerator{store: store}
}

// Enumerate lists the partitions of src.
func (e *ListingEnumerator) Enumerate(ctx context.Context, src types.TableSource) ([]Source, error) {
	single, err := e.store.Exists(ctx, src.URI)
	if err != nil {
		return nil, lerrors.NewStorageError(lerrors.CodeListFailed, "failed to stat "+src.URI, err)
	}
	if single {
		return []Source{{Ordinal: 0, Path: src.URI}}, nil
	}

	prefix := src.URI
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects, err := e.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, lerrors.NewStorageError(lerrors.CodeListFailed, "failed to list "+prefix, err)
	}

	suffix := src.PartitionSuffix()
	var paths []string
	for _, obj := range objects {
		if strings.HasSuffix(obj, suffix) {
			paths = append(paths, obj)
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		if len(objects) == 0 {
			exists, err := e.store.PrefixExists(ctx, src.URI)
			if err != nil {
				return nil, lerrors.NewStorageError(lerrors.CodeListFailed, "failed to stat "+src.URI, err)
			}
			if !exists {
				return nil, lerrors.NewStorageError(lerrors.CodeObjectNotFound,
					"no object or directory at "+src.URI, storage.ErrObjectNotFound)
			}
		}
		log.Printf("partition: no %s objects under %s", suffix, prefix)
	}

	return Ordered(paths), nil
}

// Ordered assigns ordinals to paths in the order given.
func Ordered(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = Source{Ordinal: i, Path: p}
	}
	return sources
}
