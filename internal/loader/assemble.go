package loader

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arkilian/partload/internal/decode"
	"github.com/arkilian/partload/internal/engine"
	lerrors "github.com/arkilian/partload/internal/errors"
)

// assemble hands the resolved schema and the per-partition batches, in
// partition order and with empty partitions as empty slots, to ctor.
// On failure every batch is released.
func (l *Loader) assemble(ctor TableConstructor, resolved *arrow.Schema, parts []*decode.Partition) (*engine.MemTable, error) {
	if l.config.StrictConformance {
		if err := checkConformance(resolved, parts); err != nil {
			releasePartitions(parts)
			return nil, err
		}
	}

	batches := Reshape(parts)
	tbl, err := ctor.NewMemTable(resolved, batches)
	if err != nil {
		releasePartitions(parts)
		if lerrors.GetCategory(err) != "" {
			return nil, err
		}
		return nil, lerrors.NewTableError(lerrors.CodeConstructionFailed, "table construction failed", err)
	}
	return tbl, nil
}

// Reshape drops each partition's schema and keeps its batches, in order.
func Reshape(parts []*decode.Partition) [][]arrow.Record {
	out := make([][]arrow.Record, len(parts))
	for i, p := range parts {
		out[i] = p.Batches
		if out[i] == nil {
			out[i] = []arrow.Record{}
		}
	}
	return out
}

func checkConformance(resolved *arrow.Schema, parts []*decode.Partition) error {
	for _, p := range parts {
		for j, b := range p.Batches {
			if err := engine.Conforms(resolved, b); err != nil {
				return lerrors.NewTableError(lerrors.CodeNonConformantBatch,
					fmt.Sprintf("partition %d (%s) batch %d", p.Ordinal, p.Path, j), err)
			}
		}
	}
	return nil
}
