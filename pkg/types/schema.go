package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// SchemaSpec is the external representation of a user-supplied schema override.
type SchemaSpec struct {
	// Columns defines the columns in the schema, in order
	Columns []ColumnDef `json:"columns" yaml:"columns"`

	// Metadata is optional schema-level key/value metadata
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ColumnDef defines a single column in the schema.
type ColumnDef struct {
	// Name is the column name
	Name string `json:"name" yaml:"name"`

	// Type is the logical type name, e.g. utf8, int64, timestamp[ms],
	// decimal128(10, 2), list<utf8>, struct<lat: float64, lon: float64>
	Type string `json:"type" yaml:"type"`

	// Nullable indicates whether the column can contain NULL values
	Nullable bool `json:"nullable" yaml:"nullable"`
}

var namedTypes = map[string]arrow.DataType{
	"null":          arrow.Null,
	"bool":          arrow.FixedWidthTypes.Boolean,
	"boolean":       arrow.FixedWidthTypes.Boolean,
	"int8":          arrow.PrimitiveTypes.Int8,
	"int16":         arrow.PrimitiveTypes.Int16,
	"int32":         arrow.PrimitiveTypes.Int32,
	"int64":         arrow.PrimitiveTypes.Int64,
	"uint8":         arrow.PrimitiveTypes.Uint8,
	"uint16":        arrow.PrimitiveTypes.Uint16,
	"uint32":        arrow.PrimitiveTypes.Uint32,
	"uint64":        arrow.PrimitiveTypes.Uint64,
	"float16":       arrow.FixedWidthTypes.Float16,
	"float32":       arrow.PrimitiveTypes.Float32,
	"float64":       arrow.PrimitiveTypes.Float64,
	"utf8":          arrow.BinaryTypes.String,
	"string":        arrow.BinaryTypes.String,
	"large_utf8":    arrow.BinaryTypes.LargeString,
	"binary":        arrow.BinaryTypes.Binary,
	"large_binary":  arrow.BinaryTypes.LargeBinary,
	"date32":        arrow.FixedWidthTypes.Date32,
	"date64":        arrow.FixedWidthTypes.Date64,
	"timestamp[s]":  arrow.FixedWidthTypes.Timestamp_s,
	"timestamp[ms]": arrow.FixedWidthTypes.Timestamp_ms,
	"timestamp[us]": arrow.FixedWidthTypes.Timestamp_us,
	"timestamp[ns]": arrow.FixedWidthTypes.Timestamp_ns,
	"time32[s]":     arrow.FixedWidthTypes.Time32s,
	"time32[ms]":    arrow.FixedWidthTypes.Time32ms,
	"time64[us]":    arrow.FixedWidthTypes.Time64us,
	"time64[ns]":    arrow.FixedWidthTypes.Time64ns,
}

// ParseDataType resolves a logical type name (case-insensitive) to an Arrow data type.
// Besides the named primitives it accepts decimal128(p, s) (alias decimal(p, s)),
// list<T>, large_list<T> and struct<name: T, ...>; nested types compose, and a
// struct child may end in "not null". List elements may be written as arrow
// prints them, e.g. list<item: int64, nullable>.
func ParseDataType(name string) (arrow.DataType, error) {
	s := strings.TrimSpace(name)
	lower := strings.ToLower(s)

	if inner, ok := enclosed(s, lower, "decimal128(", ")"); ok {
		return parseDecimal(name, inner)
	}
	if inner, ok := enclosed(s, lower, "decimal(", ")"); ok {
		return parseDecimal(name, inner)
	}
	if inner, ok := enclosed(s, lower, "large_list<", ">"); ok {
		elem, err := parseElement(inner)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return arrow.LargeListOf(elem), nil
	}
	if inner, ok := enclosed(s, lower, "list<", ">"); ok {
		elem, err := parseElement(inner)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return arrow.ListOf(elem), nil
	}
	if inner, ok := enclosed(s, lower, "struct<", ">"); ok {
		return parseStruct(name, inner)
	}

	key := lower
	switch key {
	case "timestamp":
		key = "timestamp[ms]"
	case "int", "integer":
		key = "int64"
	case "float", "double":
		key = "float64"
	case "text":
		key = "utf8"
	}
	dt, ok := namedTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown data type %q", name)
	}
	return dt, nil
}

func enclosed(s, lower, open, close string) (string, bool) {
	if len(s) < len(open)+len(close) || !strings.HasPrefix(lower, open) || !strings.HasSuffix(lower, close) {
		return "", false
	}
	return s[len(open) : len(s)-len(close)], true
}

func parseDecimal(name, inner string) (arrow.DataType, error) {
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%s: want decimal128(precision, scale)", name)
	}
	precision, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("%s: precision: %w", name, err)
	}
	scale, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("%s: scale: %w", name, err)
	}
	if precision < 1 || precision > 38 || scale < 0 || scale > precision {
		return nil, fmt.Errorf("%s: precision must be 1..38 and scale 0..precision", name)
	}
	return &arrow.Decimal128Type{Precision: int32(precision), Scale: int32(scale)}, nil
}

// parseElement parses a list element: "T", "name: T" or either followed by ", nullable".
func parseElement(inner string) (arrow.DataType, error) {
	parts := splitTopLevel(inner)
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "nullable") {
		inner = parts[0]
	} else if len(parts) != 1 {
		return nil, fmt.Errorf("list takes one element type")
	}
	if _, typ, ok := cutField(inner); ok {
		inner = typ
	}
	return ParseDataType(inner)
}

func parseStruct(name, inner string) (arrow.DataType, error) {
	var fields []arrow.Field
	seen := make(map[string]bool)
	for _, part := range splitTopLevel(inner) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		fname, typ, ok := cutField(part)
		if !ok || fname == "" {
			return nil, fmt.Errorf("%s: struct field %q must be written name: type", name, strings.TrimSpace(part))
		}
		if seen[fname] {
			return nil, fmt.Errorf("%s: duplicate struct field %q", name, fname)
		}
		seen[fname] = true

		nullable := true
		if lt := strings.ToLower(typ); strings.HasSuffix(lt, " not null") {
			typ = strings.TrimSpace(typ[:len(typ)-len(" not null")])
			nullable = false
		}
		dt, err := ParseDataType(typ)
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", name, fname, err)
		}
		fields = append(fields, arrow.Field{Name: fname, Type: dt, Nullable: nullable})
	}
	return arrow.StructOf(fields...), nil
}

// cutField splits "name: type" at the first top-level colon.
func cutField(s string) (name, typ string, ok bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return "", "", false
}

// splitTopLevel splits s on commas outside <> and () brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// Validate checks that every column has a name and a known type and that names are unique.
func (s *SchemaSpec) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	for i, col := range s.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d: name is required", i)
		}
		if seen[col.Name] {
			return fmt.Errorf("column %q: duplicate name", col.Name)
		}
		seen[col.Name] = true
		if _, err := ParseDataType(col.Type); err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
	}
	return nil
}

// ToArrow converts the override verbatim into an Arrow schema, preserving column order.
func (s *SchemaSpec) ToArrow() (*arrow.Schema, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(s.Columns))
	for i, col := range s.Columns {
		dt, _ := ParseDataType(col.Type)
		fields[i] = arrow.Field{Name: col.Name, Type: dt, Nullable: col.Nullable}
	}

	var md *arrow.Metadata
	if len(s.Metadata) > 0 {
		m := arrow.MetadataFrom(s.Metadata)
		md = &m
	}
	return arrow.NewSchema(fields, md), nil
}
