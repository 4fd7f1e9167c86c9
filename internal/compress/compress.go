package compress

// Codecs accepted for partition/bootstrap sources and whole-image output.
// RW: gzip, zstd, lz4, lzma, bzip2. R-only: xz.
// Names: none|auto|gzip|gz|zstd|zst|lz4|lzma|bzip2|bz2|xz

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var ErrUnsupported = errors.New("compression: unsupported operation")

type magic struct {
	name string
	sig  []byte
}

var magics = []magic{
	{"gzip", []byte{0x1F, 0x8B}},
	{"zstd", []byte{0x28, 0xB5, 0x2F, 0xFD}},
	{"lz4", []byte{0x04, 0x22, 0x4D, 0x18}},
	{"xz", []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{"bzip2", []byte{'B', 'Z', 'h'}},
}

func Normalize(name string) string {
	switch name {
	case "", "auto":
		return "auto"
	case "none", "raw":
		return "none"
	case "gz":
		return "gzip"
	case "zst":
		return "zstd"
	case "bz2":
		return "bzip2"
	default:
		return name
	}
}

// Detect sniffs the codec from leading magic bytes. lzma "alone" has no
// reliable signature and is reported as "none".
func Detect(data []byte) string {
	for _, m := range magics {
		if len(data) >= len(m.sig) && bytes.Equal(data[:len(m.sig)], m.sig) {
			return m.name
		}
	}
	return "none"
}

func DecompressAuto(in []byte) ([]byte, string, error) {
	kind := Detect(in)
	if kind == "none" {
		return in, "none", nil
	}
	out, err := Decompress(in, kind)
	return out, kind, err
}

func Decompress(in []byte, name string) ([]byte, error) {
	switch Normalize(name) {
	case "none":
		return in, nil
	case "auto":
		out, _, err := DecompressAuto(in)
		return out, err
	case "gzip":
		gr, err := gzip.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	case "zstd":
		d, err := zstd.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return io.ReadAll(d)
	case "lz4":
		return io.ReadAll(lz4.NewReader(bytes.NewReader(in)))
	case "xz":
		xr, err := xz.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(xr)
	case "lzma":
		lr, err := lzma.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(lr)
	case "bzip2":
		br, err := bzip2.NewReader(bytes.NewReader(in), &bzip2.ReaderConfig{})
		if err != nil {
			return nil, err
		}
		defer br.Close()
		return io.ReadAll(br)
	default:
		return nil, ErrUnsupported
	}
}

func Compress(in []byte, name string) ([]byte, error) {
	name = Normalize(name)
	if name == "none" || name == "auto" {
		return in, nil
	}
	var buf bytes.Buffer
	var wc io.WriteCloser
	var err error
	switch name {
	case "gzip":
		wc = gzip.NewWriter(&buf)
	case "zstd":
		wc, err = zstd.NewWriter(&buf)
	case "lz4":
		wc = lz4.NewWriter(&buf)
	case "lzma":
		wc, err = lzma.NewWriter(&buf)
	case "bzip2":
		wc, err = bzip2.NewWriter(&buf, &bzip2.WriterConfig{})
	default:
		// xz write path is missing upstream
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	if _, err := wc.Write(in); err != nil {
		return nil, err
	}
	if err := wc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
