package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/partload/internal/partition"
	"github.com/arkilian/partload/pkg/types"
)

func newCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	catalog, err := NewCatalog(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func TestCatalog_RegisterPreservesOrder(t *testing.T) {
	catalog := newCatalog(t)
	ctx := context.Background()

	added, err := catalog.RegisterPartitions(ctx, "uk_cities", "c/2020-01-03.arrow", "c/2020-01-01.arrow")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = catalog.RegisterPartitions(ctx, "uk_cities", "c/2020-01-01.arrow", "c/2020-01-02.arrow")
	require.NoError(t, err)
	assert.Equal(t, 1, added, "already registered paths are skipped")

	records, err := catalog.ListPartitions(ctx, "uk_cities")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c/2020-01-03.arrow", records[0].ObjectPath)
	assert.Equal(t, "c/2020-01-01.arrow", records[1].ObjectPath)
	assert.Equal(t, "c/2020-01-02.arrow", records[2].ObjectPath)
	assert.Equal(t, 2, records[2].Ordinal)
}

func TestCatalog_Enumerate(t *testing.T) {
	catalog := newCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterPartitions(ctx, "a", "x.arrow", "y.arrow")
	require.NoError(t, err)
	_, err = catalog.RegisterPartitions(ctx, "b", "z.arrow")
	require.NoError(t, err)

	sources, err := catalog.Enumerate(ctx, types.TableSource{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, []partition.Source{{Ordinal: 0, Path: "x.arrow"}, {Ordinal: 1, Path: "y.arrow"}}, sources)

	none, err := catalog.Enumerate(ctx, types.TableSource{Name: "unknown"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalog_TablesAndRemove(t *testing.T) {
	catalog := newCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterPartitions(ctx, "b", "1.arrow")
	require.NoError(t, err)
	_, err = catalog.RegisterPartitions(ctx, "a", "1.arrow", "2.arrow")
	require.NoError(t, err)

	tables, err := catalog.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tables)

	removed, err := catalog.RemoveTable(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	tables, err = catalog.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, tables)
}

func TestCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")
	ctx := context.Background()

	catalog, err := NewCatalog(path)
	require.NoError(t, err)
	_, err = catalog.RegisterPartitions(ctx, "t", "p0.arrow")
	require.NoError(t, err)
	require.NoError(t, catalog.Close())

	reopened, err := NewCatalog(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.ListPartitions(ctx, "t")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p0.arrow", records[0].ObjectPath)
}
