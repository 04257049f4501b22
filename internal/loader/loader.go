// Package loader turns the partition files of a logical table into one
// in-memory table: partitions are decoded concurrently, their schemas are
// reconciled, and the batches are assembled in enumeration order.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/arkilian/partload/internal/decode"
	"github.com/arkilian/partload/internal/engine"
	lerrors "github.com/arkilian/partload/internal/errors"
	"github.com/arkilian/partload/internal/partition"
	"github.com/arkilian/partload/internal/schema"
	"github.com/arkilian/partload/internal/storage"
	"github.com/arkilian/partload/pkg/types"
)

// TableConstructor builds the query engine's table from a schema and
// partition-major batches. *engine.Session implements it.
type TableConstructor interface {
	NewMemTable(schema *arrow.Schema, partitions [][]arrow.Record) (*engine.MemTable, error)
}

// Config holds loader configuration.
type Config struct {
	// Concurrency is the maximum number of partitions decoded at once
	Concurrency int

	// StrictConformance checks every batch against the resolved schema
	// before the table is constructed, instead of leaving it to scan time
	StrictConformance bool

	// Allocator backs decoded batches (default: memory.DefaultAllocator)
	Allocator memory.Allocator
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 8,
		Allocator:   memory.DefaultAllocator,
	}
}

// Loader loads tables from object storage.
type Loader struct {
	store  storage.ObjectStorage
	enum   partition.Enumerator
	config Config
}

// New creates a loader reading partitions through store, enumerated by enum.
func New(store storage.ObjectStorage, enum partition.Enumerator, cfg Config) *Loader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Allocator == nil {
		cfg.Allocator = memory.DefaultAllocator
	}
	return &Loader{store: store, enum: enum, config: cfg}
}

// Load loads src into a table built by ctor. Any failure is returned as a
// single error naming the table, and no partial table survives it.
func (l *Loader) Load(ctx context.Context, ctor TableConstructor, src types.TableSource) (*engine.MemTable, error) {
	loadID := uuid.New().String()[:8]
	start := time.Now()

	tbl, err := l.load(ctx, loadID, ctor, src)
	if err != nil {
		log.Printf("loader: [%s] table %q failed after %s: %v", loadID, src.Name, time.Since(start), err)
		return nil, lerrors.ForTable(src.Name, err)
	}

	st := tbl.Statistics()
	log.Printf("loader: [%s] table %q loaded: %d partitions, %d batches, %d rows in %s",
		loadID, src.Name, st.NumPartitions, st.NumBatches, st.NumRows, time.Since(start))
	return tbl, nil
}

func (l *Loader) load(ctx context.Context, loadID string, ctor TableConstructor, src types.TableSource) (*engine.MemTable, error) {
	override, err := overrideSchema(src)
	if err != nil {
		return nil, err
	}

	decodeFn, err := decode.ForSource(src)
	if err != nil {
		return nil, err
	}

	sources, err := l.enum.Enumerate(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Printf("loader: [%s] table %q: decoding %d partitions from %s", loadID, src.Name, len(sources), src.URI)

	parts, err := partition.ReadAll(ctx, sources, l.config.Concurrency,
		func(ctx context.Context, s partition.Source) (*decode.Partition, error) {
			return l.readPartition(ctx, decodeFn, s)
		},
		func(p *decode.Partition) { p.Release() })
	if err != nil {
		return nil, err
	}

	resolved, err := schema.Reconcile(override, candidates(parts))
	if err != nil {
		releasePartitions(parts)
		return nil, err
	}
	if override != nil {
		log.Printf("loader: [%s] table %q: using schema override (%d fields)", loadID, src.Name, resolved.NumFields())
	} else {
		log.Printf("loader: [%s] table %q: inferred schema %s (%d fields)",
			loadID, src.Name, schema.FingerprintString(resolved), resolved.NumFields())
	}

	return l.assemble(ctor, resolved, parts)
}

// readPartition opens one partition, decodes it fully and closes it on every path.
func (l *Loader) readPartition(ctx context.Context, fn decode.Func, s partition.Source) (*decode.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj, err := l.store.Open(ctx, s.Path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := lerrors.CodeOpenFailed
		if errors.Is(err, storage.ErrObjectNotFound) {
			code = lerrors.CodeObjectNotFound
		}
		return nil, lerrors.NewStorageError(code, fmt.Sprintf("partition %d (%s)", s.Ordinal, s.Path), err)
	}
	defer obj.Close()

	return decode.Decode(fn, obj, l.config.Allocator, s.Ordinal, s.Path)
}

func overrideSchema(src types.TableSource) (*arrow.Schema, error) {
	if src.Schema == nil {
		return nil, nil
	}
	s, err := src.Schema.ToArrow()
	if err != nil {
		return nil, lerrors.Wrap(lerrors.ErrCategorySchema, lerrors.CodeInvalidOverride, "invalid schema override", err)
	}
	return s, nil
}

func candidates(parts []*decode.Partition) []schema.Candidate {
	out := make([]schema.Candidate, len(parts))
	for i, p := range parts {
		out[i] = schema.Candidate{Schema: p.Schema, NumBatches: len(p.Batches)}
	}
	return out
}

func releasePartitions(parts []*decode.Partition) {
	for _, p := range parts {
		p.Release()
	}
}
