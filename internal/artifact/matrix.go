package artifact

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Matrix is the embedding matrix: row i is the vector of the passage with global index i.
type Matrix struct {
	Dimensions int
	Rows       [][]float32
}

// NewMatrix validates that every row has the given width.
func NewMatrix(dimensions int, rows [][]float32) (*Matrix, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	for i, row := range rows {
		if len(row) != dimensions {
			return nil, fmt.Errorf("row %d has dimension %d, expected %d", i, len(row), dimensions)
		}
	}
	return &Matrix{Dimensions: dimensions, Rows: rows}, nil
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// WriteMatrix writes dims (uint32), rows (uint32), then row-major little-endian float32 values,
// and fsyncs the file.
func WriteMatrix(path string, m *Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := encodeMatrix(w, m); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush matrix file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync matrix file: %w", err)
	}
	return f.Close()
}

func encodeMatrix(w io.Writer, m *Matrix) error {
	header := [2]uint32{uint32(m.Dimensions), uint32(len(m.Rows))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}
	buf := make([]byte, m.Dimensions*4)
	for _, row := range m.Rows {
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write matrix row: %w", err)
		}
	}
	return nil
}

// ReadMatrix reads a file written by WriteMatrix. Trailing bytes are an error.
func ReadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var header [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read matrix header: %w", err)
	}
	dims, n := int(header[0]), int(header[1])
	if dims <= 0 {
		return nil, fmt.Errorf("matrix header has dimension %d", dims)
	}
	rows := make([][]float32, n)
	buf := make([]byte, dims*4)
	for i := range rows {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read matrix row %d: %w", i, err)
		}
		row := make([]float32, dims)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		rows[i] = row
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("matrix file has trailing data")
	}
	return &Matrix{Dimensions: dims, Rows: rows}, nil
}
