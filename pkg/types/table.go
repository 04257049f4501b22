package types

import (
	"fmt"
	"strings"
)

// Format identifies the container encoding of a table's partition files.
type Format string

const (
	// FormatArrowFile is the Arrow IPC file format (random access, footer-indexed)
	FormatArrowFile Format = "arrow"

	// FormatArrowStream is the Arrow IPC streaming format
	FormatArrowStream Format = "arrows"
)

// Compression identifies an outer compression wrapping each partition file.
type Compression string

const (
	// CompressionNone reads partition files as-is
	CompressionNone Compression = ""

	// CompressionSnappy reads partition files through a snappy framed stream
	CompressionSnappy Compression = "snappy"
)

// Extension returns the file extension partitions of this format carry.
func (f Format) Extension() string {
	return "." + string(f)
}

// Valid reports whether the format is one the loader can decode.
func (f Format) Valid() bool {
	return f == FormatArrowFile || f == FormatArrowStream
}

// Valid reports whether the compression is supported.
func (c Compression) Valid() bool {
	return c == CompressionNone || c == CompressionSnappy
}

// Extension returns the suffix appended by the compression, if any.
func (c Compression) Extension() string {
	if c == CompressionSnappy {
		return ".sz"
	}
	return ""
}

// TableSource describes one logical table to be loaded from partition files.
type TableSource struct {
	// Name is the table name used for registration and error reporting
	Name string `json:"name" yaml:"name"`

	// URI is an object path or a prefix under which partition files live
	URI string `json:"uri" yaml:"uri"`

	// Format is the partition container format (defaults to arrow)
	Format Format `json:"format" yaml:"format"`

	// Compression is an optional outer compression of each partition file
	Compression Compression `json:"compression,omitempty" yaml:"compression,omitempty"`

	// Schema is an optional override; when set it is used verbatim
	Schema *SchemaSpec `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// NewTableSource creates a table source, inferring the format from the URI extension.
func NewTableSource(name, uri string) TableSource {
	src := TableSource{Name: name, URI: uri, Format: FormatArrowFile}
	trimmed := uri
	if strings.HasSuffix(trimmed, CompressionSnappy.Extension()) {
		src.Compression = CompressionSnappy
		trimmed = strings.TrimSuffix(trimmed, CompressionSnappy.Extension())
	}
	if strings.HasSuffix(trimmed, FormatArrowStream.Extension()) {
		src.Format = FormatArrowStream
	}
	return src
}

// WithSchema returns a copy of the source carrying a schema override.
func (t TableSource) WithSchema(schema SchemaSpec) TableSource {
	t.Schema = &schema
	return t
}

// PartitionSuffix returns the suffix every partition file of this source ends with.
func (t TableSource) PartitionSuffix() string {
	format := t.Format
	if format == "" {
		format = FormatArrowFile
	}
	return format.Extension() + t.Compression.Extension()
}

// Validate checks the source's name, format, compression and override schema.
func (t TableSource) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if t.URI == "" {
		return fmt.Errorf("table %q: uri is required", t.Name)
	}
	if t.Format != "" && !t.Format.Valid() {
		return fmt.Errorf("table %q: %w: %s", t.Name, ErrUnknownFormat, t.Format)
	}
	if !t.Compression.Valid() {
		return fmt.Errorf("table %q: %w: %s", t.Name, ErrUnknownCompression, t.Compression)
	}
	if t.Schema != nil {
		if err := t.Schema.Validate(); err != nil {
			return fmt.Errorf("table %q: schema: %w", t.Name, err)
		}
	}
	return nil
}
