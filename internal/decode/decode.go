// Package decode reads partition byte sources encoded as Arrow IPC into
// their embedded schema and the ordered batches they contain.
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/golang/snappy"

	lerrors "github.com/arkilian/partload/internal/errors"
	"github.com/arkilian/partload/pkg/types"
)

// Source is the byte source a decoder consumes.
type Source interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Partition is one decoded partition file.
// Batches are owned by the partition until handed to a table.
type Partition struct {
	Ordinal int
	Path    string
	Schema  *arrow.Schema
	Batches []arrow.Record
}

// NumRows returns the total number of rows across the partition's batches.
func (p *Partition) NumRows() int64 {
	var n int64
	for _, b := range p.Batches {
		n += b.NumRows()
	}
	return n
}

// Release releases every batch and clears the partition.
func (p *Partition) Release() {
	for _, b := range p.Batches {
		b.Release()
	}
	p.Batches = nil
}

// Func decodes a whole byte source into a schema and its batches, eagerly.
type Func func(src Source, mem memory.Allocator) (*arrow.Schema, []arrow.Record, error)

// ForSource returns the decoder for a table source's format and compression.
func ForSource(src types.TableSource) (Func, error) {
	var fn Func
	switch src.Format {
	case types.FormatArrowFile, "":
		fn = File
	case types.FormatArrowStream:
		fn = Stream
	default:
		return nil, lerrors.NewDecodeError(lerrors.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported format %q", src.Format), nil)
	}

	switch src.Compression {
	case types.CompressionNone:
		return fn, nil
	case types.CompressionSnappy:
		return Snappy(fn), nil
	default:
		return nil, lerrors.NewDecodeError(lerrors.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported compression %q", src.Compression), nil)
	}
}

// File decodes the Arrow IPC file format.
func File(src Source, mem memory.Allocator) (*arrow.Schema, []arrow.Record, error) {
	rdr, err := ipc.NewFileReader(src, ipc.WithAllocator(mem))
	if err != nil {
		return nil, nil, err
	}
	defer rdr.Close()

	batches := make([]arrow.Record, 0, rdr.NumRecords())
	for i := 0; i < rdr.NumRecords(); i++ {
		rec, err := rdr.RecordAt(i)
		if err != nil {
			releaseAll(batches)
			return nil, nil, fmt.Errorf("batch %d: %w", i, err)
		}
		batches = append(batches, rec)
	}

	return rdr.Schema(), batches, nil
}

// Stream decodes the Arrow IPC streaming format.
func Stream(src Source, mem memory.Allocator) (*arrow.Schema, []arrow.Record, error) {
	rdr, err := ipc.NewReader(src, ipc.WithAllocator(mem))
	if err != nil {
		return nil, nil, err
	}
	defer rdr.Release()

	var batches []arrow.Record
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		batches = append(batches, rec)
	}
	if err := rdr.Err(); err != nil {
		releaseAll(batches)
		return nil, nil, fmt.Errorf("batch %d: %w", len(batches), err)
	}

	return rdr.Schema(), batches, nil
}

// Snappy wraps a decoder so it reads through a snappy framed stream.
func Snappy(fn Func) Func {
	return func(src Source, mem memory.Allocator) (*arrow.Schema, []arrow.Record, error) {
		raw, err := io.ReadAll(snappy.NewReader(src))
		if err != nil {
			return nil, nil, fmt.Errorf("snappy: %w", err)
		}
		return fn(bytes.NewReader(raw), mem)
	}
}

// Decode runs fn over src and tags any failure as a decode error naming path.
// No partial result survives a failure.
func Decode(fn Func, src Source, mem memory.Allocator, ordinal int, path string) (*Partition, error) {
	schema, batches, err := fn(src, mem)
	if err != nil {
		return nil, lerrors.NewDecodeError(lerrors.CodeMalformedContainer,
			fmt.Sprintf("partition %d (%s)", ordinal, path), err)
	}

	return &Partition{
		Ordinal: ordinal,
		Path:    path,
		Schema:  schema,
		Batches: batches,
	}, nil
}

func releaseAll(batches []arrow.Record) {
	for _, b := range batches {
		b.Release()
	}
}
