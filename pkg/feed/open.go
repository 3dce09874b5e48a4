package feed

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Open reads and normalizes a feed file. Gzip-compressed feeds are detected
// by their magic bytes, whatever the file name.
func Open(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	data, err = maybeGunzip(data)
	if err != nil {
		return nil, fmt.Errorf("decompress feed %s: %w", path, err)
	}
	return Normalize(data)
}

func maybeGunzip(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
