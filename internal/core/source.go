package core

import (
	"bytes"
	"io"
	"os"

	"mkmbr/internal/mbr"
)

// FileSource streams a file from disk. The file is stat-ed at plan time and
// opened only while its bytes are being copied out.
func FileSource(path string) mbr.Source {
	return fileSource{path}
}

type fileSource struct {
	path string
}

func (f fileSource) Size() (int64, error) {
	fi, err := os.Stat(f.path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (f fileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// BytesSource serves an in-memory payload, e.g. a decompressed input.
func BytesSource(data []byte) mbr.Source {
	return bytesSource{data}
}

type bytesSource struct {
	data []byte
}

func (b bytesSource) Size() (int64, error) {
	return int64(len(b.data)), nil
}

func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
