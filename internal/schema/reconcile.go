package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Candidate is one partition's contribution to schema inference: its
// embedded schema, if any, and how many batches it holds.
type Candidate struct {
	Schema     *arrow.Schema
	NumBatches int
}

// Contributes reports whether a partition takes part in schema inference.
// Partitions without batches never do, even when they carry a schema.
func (c Candidate) Contributes() bool {
	return c.NumBatches > 0 && c.Schema != nil
}

// InferenceSet returns the schemas of contributing candidates in order,
// dropping repeats of a schema already in the set.
func InferenceSet(candidates []Candidate) []*arrow.Schema {
	var (
		set  []*arrow.Schema
		seen = make(map[uint64][]*arrow.Schema)
	)
	for _, c := range candidates {
		if !c.Contributes() {
			continue
		}
		fp := Fingerprint(c.Schema)
		dup := false
		for _, s := range seen[fp] {
			if s.Equal(c.Schema) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[fp] = append(seen[fp], c.Schema)
		set = append(set, c.Schema)
	}
	return set
}

// Reconcile returns the table schema. A non-nil override wins outright and
// no candidate is consulted. Otherwise the inference set is merged; an
// empty inference set yields the empty schema.
func Reconcile(override *arrow.Schema, candidates []Candidate) (*arrow.Schema, error) {
	if override != nil {
		return override, nil
	}

	set := InferenceSet(candidates)
	switch len(set) {
	case 0:
		return Empty(), nil
	case 1:
		return set[0], nil
	}
	return Merge(set...)
}
