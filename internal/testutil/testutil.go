// Package testutil builds Arrow fixtures and partition files for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"
)

// UKCitiesRows is the number of rows in the uk_cities fixture.
const UKCitiesRows = 37

// UKCitiesSchema is the schema of the uk_cities fixture.
func UKCitiesSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "population", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
}

// UKCities builds a 37-row batch matching UKCitiesSchema.
func UKCities(mem memory.Allocator) arrow.Record {
	b := array.NewRecordBuilder(mem, UKCitiesSchema())
	defer b.Release()

	names := b.Field(0).(*array.StringBuilder)
	pops := b.Field(1).(*array.Int64Builder)
	for i := 0; i < UKCitiesRows; i++ {
		names.Append(fmt.Sprintf("city-%02d", i))
		pops.Append(int64(10000 + i*1000))
	}
	return b.NewRecord()
}

// Int64Batch builds a batch with one int64 column per name, each holding rows values.
func Int64Batch(mem memory.Allocator, rows int, names ...string) arrow.Record {
	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: arrow.PrimitiveTypes.Int64}
	}
	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	for c := range names {
		col := b.Field(c).(*array.Int64Builder)
		for r := 0; r < rows; r++ {
			col.Append(int64(r))
		}
	}
	return b.NewRecord()
}

// EncodeFile encodes batches in the Arrow IPC file format.
func EncodeFile(t testing.TB, schema *arrow.Schema, batches ...arrow.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf, ipc.WithSchema(schema))
	require.NoError(t, err)
	for _, rec := range batches {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// EncodeStream encodes batches in the Arrow IPC streaming format.
func EncodeStream(t testing.TB, schema *arrow.Schema, batches ...arrow.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	for _, rec := range batches {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// Snappy compresses data into a snappy framed stream.
func Snappy(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// WriteObject writes data to base/rel, creating parent directories.
func WriteObject(t testing.TB, base, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}
