package artifact

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
)

// manifestVersion changes when the artifact layout changes; older generations are rebuilt.
const manifestVersion = 1

// Manifest describes one committed generation of artifacts.
type Manifest struct {
	Version     int       `json:"version"`
	Generation  string    `json:"generation"`
	Fingerprint string    `json:"fingerprint"`
	Model       string    `json:"model"`
	Passages    int       `json:"passages"`
	Dimensions  int       `json:"dimensions"`
	IndexType   string    `json:"index_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key is what a cached generation must match to be reused.
type Key struct {
	Fingerprint string
	Model       string
	Passages    int
	Dimensions  int
	IndexType   string
}

// staleReason returns why m cannot serve k, or "" when it can. Index type is not part of
// staleness: a different index type is rebuilt from the stored matrix.
func (m *Manifest) staleReason(k Key) string {
	switch {
	case m.Version != manifestVersion:
		return fmt.Sprintf("layout version %d, want %d", m.Version, manifestVersion)
	case m.Fingerprint != k.Fingerprint:
		return "corpus fingerprint changed"
	case m.Model != k.Model:
		return fmt.Sprintf("embedding model changed from %s to %s", m.Model, k.Model)
	case m.Passages != k.Passages:
		return fmt.Sprintf("passage count %d, want %d", m.Passages, k.Passages)
	case m.Dimensions != k.Dimensions:
		return fmt.Sprintf("dimension %d, want %d", m.Dimensions, k.Dimensions)
	}
	return ""
}

func writeManifest(path string, m *Manifest) error {
	data, err := sonic.ConfigStd.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFileSync(path, data)
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := sonic.ConfigStd.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// writeFileSync writes data to path and fsyncs it before closing.
func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
