// Package schema decides a table's authoritative schema: a user override
// taken verbatim, or the field-compatible merge of its partitions' schemas.
package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	lerrors "github.com/arkilian/partload/internal/errors"
)

// Empty returns a schema with no fields.
func Empty() *arrow.Schema {
	return arrow.NewSchema(nil, nil)
}

// Merge unions the fields of schemas by name, in first-seen order.
// A field present in several schemas must have compatible types there:
// equal types merge, a null type widens to the other side, struct fields
// merge their children, and anything else is a MERGE_CONFLICT. Nullability
// is OR-ed and metadata is unioned; one key with two values is a conflict.
// Merging nothing yields the empty schema.
func Merge(schemas ...*arrow.Schema) (*arrow.Schema, error) {
	var (
		fields []arrow.Field
		index  = make(map[string]int)
		md     = newMetadata()
	)

	for _, s := range schemas {
		if s == nil {
			continue
		}
		if err := md.merge(s.Metadata(), ""); err != nil {
			return nil, err
		}
		for _, f := range s.Fields() {
			i, ok := index[f.Name]
			if !ok {
				index[f.Name] = len(fields)
				fields = append(fields, f)
				continue
			}
			merged, err := mergeField(fields[i], f, f.Name)
			if err != nil {
				return nil, err
			}
			fields[i] = merged
		}
	}

	if len(fields) == 0 && md.len() == 0 {
		return Empty(), nil
	}
	return arrow.NewSchema(fields, md.arrow()), nil
}

func mergeField(into, from arrow.Field, path string) (arrow.Field, error) {
	out := into
	out.Nullable = into.Nullable || from.Nullable

	md := newMetadata()
	for _, fmd := range []arrow.Metadata{into.Metadata, from.Metadata} {
		if err := md.merge(fmd, path); err != nil {
			return arrow.Field{}, err
		}
	}
	if md.len() > 0 {
		out.Metadata = *md.arrow()
	}

	dt, err := mergeType(into.Type, from.Type, path)
	if err != nil {
		return arrow.Field{}, err
	}
	if into.Type.ID() == arrow.NULL || from.Type.ID() == arrow.NULL {
		out.Nullable = true
	}
	out.Type = dt
	return out, nil
}

func mergeType(a, b arrow.DataType, path string) (arrow.DataType, error) {
	switch {
	case arrow.TypeEqual(a, b):
		return a, nil
	case a.ID() == arrow.NULL:
		return b, nil
	case b.ID() == arrow.NULL:
		return a, nil
	case a.ID() == arrow.STRUCT && b.ID() == arrow.STRUCT:
		return mergeStruct(a.(*arrow.StructType), b.(*arrow.StructType), path)
	}
	return nil, conflict(path, fmt.Sprintf("data type %s does not equal %s", a, b))
}

func mergeStruct(a, b *arrow.StructType, path string) (arrow.DataType, error) {
	fields := append([]arrow.Field(nil), a.Fields()...)
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}

	for _, f := range b.Fields() {
		i, ok := index[f.Name]
		if !ok {
			index[f.Name] = len(fields)
			fields = append(fields, f)
			continue
		}
		merged, err := mergeField(fields[i], f, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		fields[i] = merged
	}
	return arrow.StructOf(fields...), nil
}

func conflict(path, reason string) error {
	if path == "" {
		return lerrors.NewSchemaError(lerrors.CodeMergeConflict, "cannot merge schema metadata: "+reason)
	}
	return lerrors.NewSchemaError(lerrors.CodeMergeConflict,
		fmt.Sprintf("cannot merge field %q: %s", path, reason)).
		WithDetails(map[string]interface{}{"field": path})
}

// metadata accumulates key/value pairs in insertion order.
type metadata struct {
	keys   []string
	values map[string]string
}

func newMetadata() *metadata {
	return &metadata{values: make(map[string]string)}
}

func (m *metadata) merge(md arrow.Metadata, path string) error {
	keys, values := md.Keys(), md.Values()
	for i, k := range keys {
		if v, ok := m.values[k]; ok {
			if v != values[i] {
				return conflict(path, fmt.Sprintf("metadata key %q has values %q and %q", k, v, values[i]))
			}
			continue
		}
		m.keys = append(m.keys, k)
		m.values[k] = values[i]
	}
	return nil
}

func (m *metadata) len() int { return len(m.keys) }

func (m *metadata) arrow() *arrow.Metadata {
	if len(m.keys) == 0 {
		return nil
	}
	vals := make([]string, len(m.keys))
	for i, k := range m.keys {
		vals[i] = m.values[k]
	}
	md := arrow.NewMetadata(m.keys, vals)
	return &md
}
