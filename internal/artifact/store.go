// Package artifact persists the embedding matrix, vector index and id map as one unit and
// decides whether a persisted unit can be reused for a corpus.
//
// Layout under the cache directory:
//
//	CURRENT               name of the committed generation directory
//	gen-<uuid>/manifest.json
//	gen-<uuid>/embeddings.bin
//	gen-<uuid>/index.bin
//	gen-<uuid>/idmap.gob
//	LOCK                  advisory lock file
//
// A generation becomes visible only when CURRENT is atomically replaced to name it, so readers
// see either the previous complete generation or the new complete one. Loads hold LOCK shared and
// commits hold it exclusively, so a commit never removes a generation that another process is
// staging or reading.
package artifact

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ragbench/internal/models"
	"github.com/hyperjump/ragbench/internal/vector"
	"github.com/hyperjump/ragbench/pkg/utils"
)

const (
	currentFile      = "CURRENT"
	manifestFile     = "manifest.json"
	matrixFile       = "embeddings.bin"
	indexFile        = "index.bin"
	idMapFile        = "idmap.gob"
	lockFile         = "LOCK"
	generationPrefix = "gen-"

	lockRetryDelay = 20 * time.Millisecond
)

// ErrCacheMiss means there is no reusable generation: nothing was committed yet, or the committed
// one was built for a different corpus or model. The caller rebuilds.
var ErrCacheMiss = errors.New("artifact cache miss")

// Bundle is one loaded or freshly built generation. Matrix, IDs and Index are index-aligned.
type Bundle struct {
	Manifest Manifest
	Matrix   *Matrix
	IDs      []models.PassageID
	Index    vector.Index
}

// Close releases the vector index.
func (b *Bundle) Close() error {
	if b == nil || b.Index == nil {
		return nil
	}
	return b.Index.Close()
}

// Store reads and commits generations under a cache directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets a logger for commit and cleanup events.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a store rooted at dir. The directory is created on first use.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// lock takes the cache lock, shared or exclusive, waiting until ctx is done. The returned function
// releases it. A shared lock on a cache directory that does not exist yet returns ErrCacheMiss.
func (s *Store) lock(ctx context.Context, exclusive bool) (func(), error) {
	if exclusive {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	} else if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	fl := flock.New(filepath.Join(s.dir, lockFile))
	var locked bool
	var err error
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("lock cache dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock cache dir %s: not acquired", s.dir)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("unlock cache dir failed", zap.Error(err))
		}
	}, nil
}

// current returns the committed generation name, or ErrCacheMiss when nothing is committed or
// CURRENT names a generation that no longer exists.
func (s *Store) current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", currentFile, err)
	}
	name := strings.TrimSpace(string(data))
	if !strings.HasPrefix(name, generationPrefix) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %s names %q", models.ErrCacheInconsistency, currentFile, name)
	}
	if _, err := os.Stat(filepath.Join(s.dir, name)); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s names missing generation %s", ErrCacheMiss, currentFile, name)
	}
	return name, nil
}

// Manifest returns the manifest of the committed generation.
func (s *Store) Manifest(ctx context.Context) (*Manifest, error) {
	unlock, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gen, err := s.current()
	if err != nil {
		return nil, err
	}
	m, err := readManifest(filepath.Join(s.dir, gen, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: generation %s: %w", models.ErrCacheInconsistency, gen, err)
	}
	return m, nil
}

// Load returns the committed generation when it matches key. It returns an error wrapping
// ErrCacheMiss when there is nothing to reuse, and one wrapping models.ErrCacheInconsistency when
// the committed generation is damaged or its artifacts disagree with each other.
func (s *Store) Load(ctx context.Context, key Key) (*Bundle, error) {
	unlock, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gen, err := s.current()
	if err != nil {
		return nil, err
	}
	genDir := filepath.Join(s.dir, gen)
	inconsistent := func(format string, args ...any) error {
		return fmt.Errorf("%w: generation %s: %s", models.ErrCacheInconsistency, gen, fmt.Sprintf(format, args...))
	}

	m, err := readManifest(filepath.Join(genDir, manifestFile))
	if err != nil {
		return nil, inconsistent("%v", err)
	}
	if reason := m.staleReason(key); reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, reason)
	}

	matrix, err := ReadMatrix(filepath.Join(genDir, matrixFile))
	if err != nil {
		return nil, inconsistent("%v", err)
	}
	if matrix.Len() != m.Passages || matrix.Dimensions != m.Dimensions {
		return nil, inconsistent("matrix is %dx%d, manifest says %dx%d", matrix.Len(), matrix.Dimensions, m.Passages, m.Dimensions)
	}

	ids, err := readIDMap(filepath.Join(genDir, idMapFile))
	if err != nil {
		return nil, inconsistent("%v", err)
	}
	if len(ids) != m.Passages {
		return nil, inconsistent("id map has %d entries, manifest says %d", len(ids), m.Passages)
	}

	idx, err := s.loadIndex(ctx, genDir, m, matrix, key.IndexType)
	if err != nil {
		return nil, inconsistent("%v", err)
	}
	if idx.Size() != m.Passages {
		_ = idx.Close()
		return nil, inconsistent("index has %d vectors, manifest says %d", idx.Size(), m.Passages)
	}

	return &Bundle{Manifest: *m, Matrix: matrix, IDs: ids, Index: idx}, nil
}

// loadIndex loads index.bin, or rebuilds the index from the matrix when the committed index type
// differs from the requested one.
func (s *Store) loadIndex(ctx context.Context, genDir string, m *Manifest, matrix *Matrix, indexType string) (vector.Index, error) {
	if indexType == "" {
		indexType = string(vector.IndexTypeMemory)
	}
	if indexType != m.IndexType {
		s.logger.Info("index type changed, rebuilding index from stored embeddings",
			zap.String("stored", m.IndexType), zap.String("requested", indexType))
		return vector.Build(ctx, indexType, matrix.Dimensions, matrix.Rows)
	}
	idx, err := vector.NewIndex(indexType, m.Dimensions)
	if err != nil {
		return nil, err
	}
	if err := idx.Load(filepath.Join(genDir, indexFile)); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}

// Commit writes b as a new generation and makes it current. On return without error the bundle's
// Manifest carries the generation name. Previous generations are removed afterwards.
func (s *Store) Commit(ctx context.Context, b *Bundle) error {
	if b.Matrix == nil || b.Index == nil {
		return fmt.Errorf("commit: bundle is incomplete")
	}
	if b.Matrix.Len() != len(b.IDs) || b.Index.Size() != len(b.IDs) {
		return fmt.Errorf("commit: matrix has %d rows, id map %d, index %d", b.Matrix.Len(), len(b.IDs), b.Index.Size())
	}
	unlock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := s.stage(b)
	if err != nil {
		return err
	}
	if err := s.publish(m.Generation); err != nil {
		_ = os.RemoveAll(filepath.Join(s.dir, m.Generation))
		return err
	}
	b.Manifest = *m
	s.logger.Info("artifacts committed",
		zap.String("generation", m.Generation),
		zap.Int("passages", m.Passages),
		zap.String("fingerprint", m.Fingerprint))
	return nil
}

// stage writes b into a new generation directory without making it current. The caller holds
// the exclusive lock.
func (s *Store) stage(b *Bundle) (*Manifest, error) {
	gen := generationPrefix + uuid.NewString()
	genDir := filepath.Join(s.dir, gen)
	if err := os.Mkdir(genDir, 0755); err != nil {
		return nil, fmt.Errorf("create generation dir: %w", err)
	}
	fail := func(err error) (*Manifest, error) {
		_ = os.RemoveAll(genDir)
		return nil, err
	}

	if err := WriteMatrix(filepath.Join(genDir, matrixFile), b.Matrix); err != nil {
		return fail(err)
	}
	if err := writeIDMap(filepath.Join(genDir, idMapFile), b.IDs); err != nil {
		return fail(err)
	}
	if err := b.Index.Save(filepath.Join(genDir, indexFile)); err != nil {
		return fail(fmt.Errorf("save index: %w", err))
	}
	m := b.Manifest
	m.Version = manifestVersion
	m.Generation = gen
	m.Passages = len(b.IDs)
	m.Dimensions = b.Matrix.Dimensions
	m.IndexType = b.Index.Type()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := writeManifest(filepath.Join(genDir, manifestFile), &m); err != nil {
		return fail(err)
	}
	if err := syncDir(genDir); err != nil {
		return fail(err)
	}
	return &m, nil
}

// publish makes gen current and removes every other generation. The caller holds the exclusive
// lock.
func (s *Store) publish(gen string) error {
	if err := s.swapCurrent(gen); err != nil {
		return err
	}
	s.removeStale(gen)
	return nil
}

// swapCurrent atomically points CURRENT at gen.
func (s *Store) swapCurrent(gen string) error {
	tmp, err := os.CreateTemp(s.dir, currentFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s temp: %w", currentFile, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(gen + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s temp: %w", currentFile, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s temp: %w", currentFile, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, currentFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", currentFile, err)
	}
	return syncDir(s.dir)
}

// removeStale deletes generations and temp files other than keep. Failures are logged only.
func (s *Store) removeStale(keep string) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("list cache dir failed", zap.Error(err))
		return
	}
	for _, e := range entries {
		name := e.Name()
		stale := (strings.HasPrefix(name, generationPrefix) && name != keep) ||
			strings.HasPrefix(name, currentFile+".tmp-")
		if !stale {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, name)); err != nil {
			s.logger.Warn("remove stale generation failed", zap.String("name", name), zap.Error(err))
			continue
		}
		s.logger.Debug("removed stale generation", zap.String("name", name))
	}
}

func writeIDMap(path string, ids []models.PassageID) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create id map: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(ids); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode id map: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync id map: %w", err)
	}
	return f.Close()
}

func readIDMap(path string) ([]models.PassageID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id map: %w", err)
	}
	defer f.Close()
	var ids []models.PassageID
	if err := gob.NewDecoder(f).Decode(&ids); err != nil {
		return nil, fmt.Errorf("decode id map: %w", err)
	}
	return ids, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open dir for sync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	return nil
}
