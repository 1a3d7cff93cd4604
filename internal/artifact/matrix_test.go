package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.bin")
	m, err := NewMatrix(3, [][]float32{{1, 2, 3}, {-0.5, 0, 1e-7}})
	require.NoError(t, err)
	require.NoError(t, WriteMatrix(path, m))

	got, err := ReadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 8+2*3*4, info.Size())
}

func TestMatrix_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.bin")
	m, err := NewMatrix(4, nil)
	require.NoError(t, err)
	require.NoError(t, WriteMatrix(path, m))
	got, err := ReadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 4, got.Dimensions)
}

func TestNewMatrix_RejectsRaggedRows(t *testing.T) {
	_, err := NewMatrix(2, [][]float32{{1, 2}, {3}})
	assert.Error(t, err)
	_, err = NewMatrix(0, nil)
	assert.Error(t, err)
}

func TestReadMatrix_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.bin")
	m, _ := NewMatrix(2, [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, WriteMatrix(path, m))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	truncated := filepath.Join(dir, "truncated.bin")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-1], 0644))
	_, err = ReadMatrix(truncated)
	assert.Error(t, err)

	trailing := filepath.Join(dir, "trailing.bin")
	require.NoError(t, os.WriteFile(trailing, append(data, 0), 0644))
	_, err = ReadMatrix(trailing)
	assert.Error(t, err)

	_, err = ReadMatrix(filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
