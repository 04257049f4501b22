package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/spaolacci/murmur3"
)

// Fingerprint returns a 64-bit hash of the schema's fields, types,
// nullability and metadata. Equal schemas have equal fingerprints.
func Fingerprint(s *arrow.Schema) uint64 {
	if s == nil {
		return 0
	}
	var sb strings.Builder
	for _, f := range s.Fields() {
		writeField(&sb, f)
		sb.WriteByte(';')
	}
	writeMetadata(&sb, s.Metadata())
	return murmur3.Sum64([]byte(sb.String()))
}

// FingerprintString formats a fingerprint for logs.
func FingerprintString(s *arrow.Schema) string {
	return fmt.Sprintf("%016x", Fingerprint(s))
}

func writeField(sb *strings.Builder, f arrow.Field) {
	sb.WriteString(f.Name)
	sb.WriteByte(':')
	sb.WriteString(f.Type.String())
	if f.Nullable {
		sb.WriteByte('?')
	}
	writeMetadata(sb, f.Metadata)
}

func writeMetadata(sb *strings.Builder, md arrow.Metadata) {
	keys, values := md.Keys(), md.Values()
	for i := range keys {
		fmt.Fprintf(sb, "{%s=%s}", keys[i], values[i])
	}
}
