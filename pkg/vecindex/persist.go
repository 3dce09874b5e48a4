package vecindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	VectorsFile = "vectors.bin"
	MetaFile    = "meta.json"

	formatVersion = 1
	headerSize    = 16
)

var magic = [4]byte{'V', 'S', 'I', 'X'}

// CorruptIndexError reports a persisted index that cannot be loaded.
type CorruptIndexError struct {
	Path   string
	Reason string
}

func (e *CorruptIndexError) Error() string {
	return fmt.Sprintf("vecindex: corrupt index %s: %s", e.Path, e.Reason)
}

type metaRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// MarshalBinary encodes the vectors as: magic, version(uint32), dim(uint32),
// n(uint32), then n*dim little-endian float32 values.
func (x *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, headerSize+4*len(x.data))
	copy(out[0:4], magic[:])
	binary.LittleEndian.PutUint32(out[4:8], formatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(x.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(x.Len()))
	for i, v := range x.data {
		binary.LittleEndian.PutUint32(out[headerSize+4*i:], math.Float32bits(v))
	}
	return out, nil
}

// decodeVectors returns dim and the flat vector data.
func decodeVectors(path string, data []byte) (int, int, []float32, error) {
	if len(data) < headerSize {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: "truncated header"}
	}
	if [4]byte(data[0:4]) != magic {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: "bad magic"}
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: fmt.Sprintf("unsupported version %d", v)}
	}
	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	n := int(binary.LittleEndian.Uint32(data[12:16]))
	if (n == 0) != (dim == 0) {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: fmt.Sprintf("dim %d with %d vectors", dim, n)}
	}
	payload := len(data) - headerSize
	if payload%4 != 0 {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: fmt.Sprintf("payload of %d bytes is not whole float32 values", payload)}
	}
	count := payload / 4
	if dim > 0 && (count%dim != 0 || count/dim != n) {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: fmt.Sprintf("%d values do not hold %d vectors of dim %d", count, n, dim)}
	}
	if dim == 0 && count != 0 {
		return 0, 0, nil, &CorruptIndexError{Path: path, Reason: fmt.Sprintf("%d values in an empty index", count)}
	}
	vals := make([]float32, count)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
	}
	return dim, n, vals, nil
}

// Save writes the vectors and their metadata into dir.
func (x *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	bin, err := x.MarshalBinary()
	if err != nil {
		return err
	}
	meta := make([]metaRecord, x.Len())
	for i := range meta {
		meta[i] = metaRecord{ID: x.ids[i], Description: x.descs[i]}
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, VectorsFile), bin, 0644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetaFile), metaJSON, 0644); err != nil {
		return fmt.Errorf("write index metadata: %w", err)
	}
	return nil
}

// Load reads an index written by Save. Vectors and metadata must agree in
// count.
func Load(dir string) (*Index, error) {
	vecPath := filepath.Join(dir, VectorsFile)
	metaPath := filepath.Join(dir, MetaFile)

	bin, err := os.ReadFile(vecPath)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	metaJSON, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("read index metadata: %w", err)
	}

	dim, n, vals, err := decodeVectors(vecPath, bin)
	if err != nil {
		return nil, err
	}
	var meta []metaRecord
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, &CorruptIndexError{Path: metaPath, Reason: err.Error()}
	}
	if len(meta) != n {
		return nil, &CorruptIndexError{Path: dir, Reason: fmt.Sprintf("%d vectors but %d metadata records", n, len(meta))}
	}

	x := &Index{dim: dim, data: vals, ids: make([]string, n), descs: make([]string, n)}
	for i, m := range meta {
		x.ids[i] = m.ID
		x.descs[i] = m.Description
	}
	return x, nil
}
