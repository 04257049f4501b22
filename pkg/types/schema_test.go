package types

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaSpec_ToArrowVerbatim(t *testing.T) {
	spec := SchemaSpec{
		Columns: []ColumnDef{
			{Name: "name", Type: "utf8", Nullable: false},
			{Name: "population", Type: "INT64", Nullable: true},
			{Name: "updated", Type: "timestamp"},
		},
		Metadata: map[string]string{"source": "census"},
	}

	schema, err := spec.ToArrow()
	require.NoError(t, err)

	require.Equal(t, 3, schema.NumFields())
	assert.Equal(t, "name", schema.Field(0).Name)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, schema.Field(0).Type))
	assert.False(t, schema.Field(0).Nullable)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, schema.Field(1).Type))
	assert.True(t, schema.Field(1).Nullable)
	assert.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Timestamp_ms, schema.Field(2).Type))

	md := schema.Metadata()
	idx := md.FindKey("source")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "census", md.Values()[idx])
}

func TestSchemaSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		columns []ColumnDef
		wantErr bool
	}{
		{"empty schema", nil, false},
		{"valid", []ColumnDef{{Name: "a", Type: "bool"}}, false},
		{"missing name", []ColumnDef{{Type: "bool"}}, true},
		{"duplicate name", []ColumnDef{{Name: "a", Type: "bool"}, {Name: "a", Type: "int32"}}, true},
		{"unknown type", []ColumnDef{{Name: "a", Type: "varchar"}}, true},
		{"decimal without precision", []ColumnDef{{Name: "a", Type: "decimal"}}, true},
		{"nested", []ColumnDef{{Name: "a", Type: "list<struct<x: int32, y: decimal128(9, 3)>>"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := SchemaSpec{Columns: tt.columns}
			err := spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDataType_Parameterized(t *testing.T) {
	tests := []struct {
		name string
		want arrow.DataType
	}{
		{"decimal128(10, 2)", &arrow.Decimal128Type{Precision: 10, Scale: 2}},
		{"DECIMAL(38,0)", &arrow.Decimal128Type{Precision: 38, Scale: 0}},
		{"list<utf8>", arrow.ListOf(arrow.BinaryTypes.String)},
		{"list<item: int64, nullable>", arrow.ListOf(arrow.PrimitiveTypes.Int64)},
		{"large_list<bool>", arrow.LargeListOf(arrow.FixedWidthTypes.Boolean)},
		{"struct<Lat: float64, lon: float64 not null>", arrow.StructOf(
			arrow.Field{Name: "Lat", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			arrow.Field{Name: "lon", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		)},
		{"struct<tags: list<utf8>, geo: struct<x: int32>>", arrow.StructOf(
			arrow.Field{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
			arrow.Field{Name: "geo", Type: arrow.StructOf(
				arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
			), Nullable: true},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDataType(tt.name)
			require.NoError(t, err)
			assert.True(t, arrow.TypeEqual(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseDataType_ParameterizedErrors(t *testing.T) {
	for _, name := range []string{
		"decimal128(40, 2)",
		"decimal128(5, 6)",
		"decimal128(x, 1)",
		"decimal128(10)",
		"list<varchar>",
		"list<int64, utf8>",
		"struct<int64>",
		"struct<a: int64, a: utf8>",
		"struct<a: nope>",
	} {
		_, err := ParseDataType(name)
		assert.Error(t, err, name)
	}
}

func TestSchemaSpec_RestatesInferredSchema(t *testing.T) {
	inferred := arrow.NewSchema([]arrow.Field{
		{Name: "price", Type: &arrow.Decimal128Type{Precision: 12, Scale: 4}, Nullable: true},
		{Name: "point", Type: arrow.StructOf(
			arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		), Nullable: true},
	}, nil)

	spec := SchemaSpec{Columns: []ColumnDef{
		{Name: "price", Type: "decimal128(12, 4)", Nullable: true},
		{Name: "point", Type: "struct<x: float64>", Nullable: true},
	}}
	got, err := spec.ToArrow()
	require.NoError(t, err)
	assert.True(t, inferred.Equal(got), "got %s", got)
}

func TestNewTableSource_InfersFormat(t *testing.T) {
	tests := []struct {
		uri         string
		format      Format
		compression Compression
		suffix      string
	}{
		{"data/uk_cities.arrow", FormatArrowFile, CompressionNone, ".arrow"},
		{"data/uk_cities.arrows", FormatArrowStream, CompressionNone, ".arrows"},
		{"data/uk_cities.arrow.sz", FormatArrowFile, CompressionSnappy, ".arrow.sz"},
		{"data/uk_cities/", FormatArrowFile, CompressionNone, ".arrow"},
	}

	for _, tt := range tests {
		src := NewTableSource("uk_cities", tt.uri)
		assert.Equal(t, tt.format, src.Format, tt.uri)
		assert.Equal(t, tt.compression, src.Compression, tt.uri)
		assert.Equal(t, tt.suffix, src.PartitionSuffix(), tt.uri)
	}
}

func TestTableSource_Validate(t *testing.T) {
	src := NewTableSource("t", "data/t.arrow")
	require.NoError(t, src.Validate())

	bad := src
	bad.Format = "csv"
	assert.True(t, errors.Is(bad.Validate(), ErrUnknownFormat))

	bad = src
	bad.Compression = "gzip"
	assert.True(t, errors.Is(bad.Validate(), ErrUnknownCompression))

	withSchema := src.WithSchema(SchemaSpec{Columns: []ColumnDef{{Name: "x", Type: "nope"}}})
	assert.Error(t, withSchema.Validate())
	assert.Nil(t, src.Schema, "WithSchema must not modify the receiver")
}
