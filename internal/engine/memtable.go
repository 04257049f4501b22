// Package engine holds the in-memory tables handed to the query engine and
// the session they are registered in.
package engine

import (
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	lerrors "github.com/arkilian/partload/internal/errors"
)

// MemTable is an immutable in-memory table: one schema plus partition-major
// groups of batches. It is safe for concurrent readers. Batches are not
// checked against the schema at construction; Scan reports mismatches.
type MemTable struct {
	schema     *arrow.Schema
	partitions [][]arrow.Record

	releaseOnce sync.Once
}

// Statistics summarises a table's contents.
type Statistics struct {
	NumRows       int64
	NumPartitions int
	NumBatches    int

	// PartitionRows holds the row count of each partition, in order
	PartitionRows []int64
}

// NewMemTable creates a table taking ownership of the given batches.
// Empty partitions are kept as empty slots.
func NewMemTable(schema *arrow.Schema, partitions [][]arrow.Record) (*MemTable, error) {
	if schema == nil {
		return nil, lerrors.NewTableError(lerrors.CodeConstructionFailed, "schema is required", nil)
	}
	parts := make([][]arrow.Record, len(partitions))
	for i, p := range partitions {
		for j, b := range p {
			if b == nil {
				return nil, lerrors.NewTableError(lerrors.CodeConstructionFailed,
					fmt.Sprintf("partition %d batch %d is nil", i, j), nil)
			}
		}
		parts[i] = append([]arrow.Record{}, p...)
	}
	return &MemTable{schema: schema, partitions: parts}, nil
}

// Schema returns the table's schema.
func (t *MemTable) Schema() *arrow.Schema { return t.schema }

// NumPartitions returns the number of partition slots, empty ones included.
func (t *MemTable) NumPartitions() int { return len(t.partitions) }

// Partition returns the batches of partition i. The slice must not be modified.
func (t *MemTable) Partition(i int) []arrow.Record { return t.partitions[i] }

// Statistics computes row and batch counts.
func (t *MemTable) Statistics() Statistics {
	st := Statistics{
		NumPartitions: len(t.partitions),
		PartitionRows: make([]int64, len(t.partitions)),
	}
	for i, p := range t.partitions {
		for _, b := range p {
			st.PartitionRows[i] += b.NumRows()
			st.NumBatches++
		}
		st.NumRows += st.PartitionRows[i]
	}
	return st
}

// Scan returns every batch projected onto the named columns of the table
// schema (all columns when none are named), partition by partition.
// Columns are matched by name; a batch missing a column or holding it
// with another type fails the scan with NON_CONFORMANT_BATCH.
// The caller owns and must release the returned batches.
func (t *MemTable) Scan(columns ...string) ([][]arrow.Record, error) {
	fields, err := t.projection(columns)
	if err != nil {
		return nil, err
	}
	projected := arrow.NewSchema(fields, nil)

	out := make([][]arrow.Record, len(t.partitions))
	for i, p := range t.partitions {
		out[i] = make([]arrow.Record, 0, len(p))
		for j, b := range p {
			rec, err := project(projected, b)
			if err != nil {
				releaseAll(out)
				return nil, lerrors.NewTableError(lerrors.CodeNonConformantBatch,
					fmt.Sprintf("partition %d batch %d", i, j), err)
			}
			out[i] = append(out[i], rec)
		}
	}
	return out, nil
}

func (t *MemTable) projection(columns []string) ([]arrow.Field, error) {
	if len(columns) == 0 {
		return t.schema.Fields(), nil
	}
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		idx := t.schema.FieldIndices(name)
		if len(idx) == 0 {
			return nil, lerrors.NewTableError(lerrors.CodeNonConformantBatch,
				fmt.Sprintf("unknown column %q", name), nil)
		}
		fields[i] = t.schema.Field(idx[0])
	}
	return fields, nil
}

// Conforms checks that batch carries every field of schema by name with an
// equal type. Extra batch columns are allowed.
func Conforms(schema *arrow.Schema, batch arrow.Record) error {
	for _, f := range schema.Fields() {
		if _, err := column(batch, f); err != nil {
			return err
		}
	}
	return nil
}

func project(schema *arrow.Schema, batch arrow.Record) (arrow.Record, error) {
	cols := make([]arrow.Array, schema.NumFields())
	for i, f := range schema.Fields() {
		col, err := column(batch, f)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return array.NewRecord(schema, cols, batch.NumRows()), nil
}

func column(batch arrow.Record, f arrow.Field) (arrow.Array, error) {
	idx := batch.Schema().FieldIndices(f.Name)
	if len(idx) == 0 {
		return nil, fmt.Errorf("missing column %q", f.Name)
	}
	col := batch.Column(idx[0])
	if !arrow.TypeEqual(col.DataType(), f.Type) {
		return nil, fmt.Errorf("column %q has type %s, want %s", f.Name, col.DataType(), f.Type)
	}
	return col, nil
}

// Release releases every batch the table owns. Safe to call more than once.
func (t *MemTable) Release() {
	t.releaseOnce.Do(func() {
		releaseAll(t.partitions)
	})
}

func releaseAll(partitions [][]arrow.Record) {
	for _, p := range partitions {
		for _, b := range p {
			b.Release()
		}
	}
}
