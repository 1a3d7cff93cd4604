package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "results.db")
	require.NoError(t, os.WriteFile(db, []byte("hello"), 0644))
	cache := filepath.Join(dir, "cache", "gen-1")
	require.NoError(t, os.MkdirAll(cache, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cache, "embeddings.bin"), []byte("ab"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache", "CURRENT"), []byte("c"), 0644))

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{db}, 5},
		{"nested directory", []string{filepath.Join(dir, "cache")}, 3},
		{"file and directory", []string{db, filepath.Join(dir, "cache")}, 8},
		{"missing path skipped", append(DatabaseFiles(db), filepath.Join(dir, "cache")), 8},
		{"empty path skipped", []string{"", db}, 5},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseFiles(t *testing.T) {
	assert.Equal(t, []string{"/tmp/r.db", "/tmp/r.db-wal", "/tmp/r.db-shm"}, DatabaseFiles("/tmp/r.db"))
	assert.Nil(t, DatabaseFiles(""), "empty path should give no files")
}
