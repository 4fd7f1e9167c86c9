package core

import (
	"fmt"
	"io"
	"os"

	"mkmbr/internal/common"
	"mkmbr/internal/compress"
	"mkmbr/internal/mbr"
)

// State accumulates the inputs of one image build.
type State struct {
	Bootstrap []byte
	Parts     []mbr.Spec
	Active    int // 1-based table slot
}

func New() *State {
	return &State{Active: 1}
}

// LoadBootstrap reads the bootstrap blob, decompressing it if asked.
// The 446-byte limit is enforced here so a bad input fails before any
// partition is even stat-ed.
func (s *State) LoadBootstrap(path, compression string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if b, err = decode(b, compression); err != nil {
		return fmt.Errorf("bootstrap %s: %w", path, err)
	}
	if len(b) > mbr.BootstrapMax {
		return fmt.Errorf("%w: bootstrap %s is %d bytes, limit %d", common.ErrInvalid, path, len(b), mbr.BootstrapMax)
	}
	s.Bootstrap = b
	return nil
}

// AddPartitionFile appends a partition backed by a file on disk. The file
// is streamed at build time, never held in memory.
func (s *State) AddPartitionFile(path string, typ byte) {
	s.Parts = append(s.Parts, mbr.Spec{Name: path, Type: typ, Source: FileSource(path)})
}

// LoadPartition appends a partition whose content is read now and
// decompressed in memory. Used for compressed payloads, where the stored
// length says nothing about the partition's real size.
func (s *State) LoadPartition(path string, typ byte, compression string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if b, err = decode(b, compression); err != nil {
		return fmt.Errorf("partition %s: %w", path, err)
	}
	s.Parts = append(s.Parts, mbr.Spec{Name: path, Type: typ, Source: BytesSource(b)})
	return nil
}

func decode(b []byte, compression string) ([]byte, error) {
	switch compress.Normalize(compression) {
	case "none":
		return b, nil
	case "auto":
		out, _, err := compress.DecompressAuto(b)
		return out, err
	default:
		return compress.Decompress(b, compression)
	}
}

// BuildInfo reports what a finished build laid down.
type BuildInfo struct {
	Layouts []mbr.Layout
	Total   uint64 // image size in bytes, boot sector included
}

// Build plans the layout and writes the full image to w. On error the sink
// may hold partial output; discarding it is the caller's job.
func (s *State) Build(w io.Writer) (*BuildInfo, error) {
	layouts, err := mbr.Plan(s.Parts, s.Active)
	if err != nil {
		return nil, err
	}
	if err := mbr.Write(w, s.Bootstrap, s.Parts, layouts, s.Active); err != nil {
		return nil, err
	}
	return &BuildInfo{Layouts: layouts, Total: mbr.TotalSize(layouts)}, nil
}

// BuildFile writes the image to a temporary sibling of path and renames it
// into place on success, so a failed build never clobbers an existing
// image. A non-none compression name compresses the finished image whole.
func (s *State) BuildFile(path, compression string) (*BuildInfo, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}
	info, berr := s.Build(f)
	if cerr := f.Close(); berr == nil {
		berr = cerr
	}
	if berr != nil {
		os.Remove(tmp)
		return nil, berr
	}
	if name := compress.Normalize(compression); name != "none" && name != "auto" {
		raw, err := os.ReadFile(tmp)
		if err == nil {
			var enc []byte
			if enc, err = compress.Compress(raw, name); err == nil {
				err = os.WriteFile(tmp, enc, 0o644)
			}
		}
		if err != nil {
			os.Remove(tmp)
			return nil, err
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	return info, nil
}
