package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/partload/internal/testutil"
)

// run executes the root command with args against dataDir and returns stdout.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	resetLoadFlags()
	rootFlags.configFile = ""
	rootFlags.dataDir = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dataDir, partitions string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partload.yaml")
	content := "partitions: " + partitions + "\ntables:\n  - name: uk_cities\n    uri: cities/\n"
	testutil.WriteObject(t, filepath.Dir(path), filepath.Base(path), []byte(content))

	rec := testutil.UKCities(memory.NewGoAllocator())
	defer rec.Release()
	data := testutil.EncodeFile(t, rec.Schema(), rec)
	testutil.WriteObject(t, filepath.Join(dataDir, "storage"), "cities/a.arrow", data)
	testutil.WriteObject(t, filepath.Join(dataDir, "storage"), "cities/b.arrow", data)
	return path
}

func TestLoadCmd(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := writeConfig(t, dataDir, "listing")

	out, err := run(t, dataDir, "load", "--config", cfgPath, "--concurrency", "1")
	require.NoError(t, err)
	assert.Equal(t, "uk_cities: 74 rows, 2 partitions, 2 batches\n", out)

	_, err = run(t, dataDir, "load", "--config", cfgPath, "missing")
	assert.Error(t, err)
}

func TestSchemaCmd(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := writeConfig(t, dataDir, "listing")

	out, err := run(t, dataDir, "schema", "--config", cfgPath, "uk_cities")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "table uk_cities (fingerprint "), out)
	assert.Contains(t, out, "  name: utf8")
	assert.Contains(t, out, "  population: int64")

	_, err = run(t, dataDir, "schema", "--config", cfgPath)
	assert.Error(t, err, "table argument is required")
}

func TestManifestCmds(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := writeConfig(t, dataDir, "manifest")

	out, err := run(t, dataDir, "manifest", "add", "--config", cfgPath, "uk_cities", "cities/b.arrow")
	require.NoError(t, err)
	assert.Equal(t, "uk_cities: added 1 partitions\n", out)

	out, err = run(t, dataDir, "manifest", "list", "--config", cfgPath, "uk_cities")
	require.NoError(t, err)
	assert.Equal(t, "0\tcities/b.arrow\n", out)

	out, err = run(t, dataDir, "load", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "uk_cities: 37 rows, 1 partitions, 1 batches\n", out)

	out, err = run(t, dataDir, "manifest", "remove", "--config", cfgPath, "uk_cities")
	require.NoError(t, err)
	assert.Equal(t, "uk_cities: removed 1 partitions\n", out)

	_, err = run(t, dataDir, "manifest", "add", "--config", cfgPath, "uk_cities")
	assert.Error(t, err, "at least one object is required")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "partload dev"), out)
}
