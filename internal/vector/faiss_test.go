//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAISSIndex_AddSearch(t *testing.T) {
	idx, err := NewFAISSIndex(2)
	require.NoError(t, err)
	defer idx.Close()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, [][]float32{{0, 0}, {3, 4}, {1, 0}}))
	results, err := idx.Search(ctx, []float32{0.9, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, rowsOf(results))
}

func TestFAISSIndex_MatchesMemory(t *testing.T) {
	ctx := context.Background()
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.5, 0.5, 0}, {0.2, 0.1, 0.9}}
	query := []float32{0.4, 0.5, 0.1}

	f, err := NewFAISSIndex(3)
	require.NoError(t, err)
	defer f.Close()
	m, _ := NewMemoryIndex(3)
	require.NoError(t, f.Add(ctx, vecs))
	require.NoError(t, m.Add(ctx, vecs))
	fr, err := f.Search(ctx, query, 4)
	require.NoError(t, err)
	mr, err := m.Search(ctx, query, 4)
	require.NoError(t, err)
	assert.Equal(t, rowsOf(mr), rowsOf(fr))
}

func TestFAISSIndex_Errors(t *testing.T) {
	idx, err := NewFAISSIndex(2)
	require.NoError(t, err)
	defer idx.Close()
	ctx := context.Background()
	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
	require.NoError(t, idx.Add(ctx, [][]float32{{1, 0}}))
	_, err = idx.Search(ctx, []float32{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, idx.Add(ctx, [][]float32{{1, 0, 0}}), ErrInvalidArgument)
}

func TestFAISSIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.faiss")

	idx, _ := NewFAISSIndex(3)
	defer idx.Close()
	require.NoError(t, idx.Add(ctx, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}))
	require.NoError(t, idx.Save(path))
	before, err := idx.Search(ctx, []float32{0, 0.2, 1}, 2)
	require.NoError(t, err)

	idx2, _ := NewFAISSIndex(3)
	defer idx2.Close()
	require.NoError(t, idx2.Load(path))
	assert.Equal(t, 3, idx2.Size())
	after, err := idx2.Search(ctx, []float32{0, 0.2, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	wrong, _ := NewFAISSIndex(2)
	defer wrong.Close()
	assert.Error(t, wrong.Load(path), "dimension mismatch")
}

func TestFAISSIndex_Type(t *testing.T) {
	idx, err := NewFAISSIndex(2)
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, "faiss", idx.Type())
}
