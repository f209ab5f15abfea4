package filex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSubdDir_UnderBase(t *testing.T) {
	base := t.TempDir()

	got, err := EnsureSubdDir(base, "preupload")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "preupload"), got)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	again, err := EnsureSubdDir(base, "preupload")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestEnsureSubdDir_DefaultsToCWD(t *testing.T) {
	t.Chdir(t.TempDir())
	cwd, err := os.Getwd()
	require.NoError(t, err)

	got, err := EnsureSubdDir("", "exports")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "exports"), got)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, n, err := WriteFileAtomic(dir, "car_inventory_2024-03-10.xlsx", strings.NewReader("PK\x03\x04data"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, filepath.Join(dir, "car_inventory_2024-03-10.xlsx"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04data", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone")
}
