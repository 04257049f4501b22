package types

import "errors"

// Table source errors
var (
	// ErrUnknownFormat is returned when a table source names an unsupported format
	ErrUnknownFormat = errors.New("unknown table format")

	// ErrUnknownCompression is returned when a table source names an unsupported compression
	ErrUnknownCompression = errors.New("unknown compression")
)
