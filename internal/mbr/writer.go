package mbr

import (
	"encoding/binary"
	"fmt"
	"io"

	"mkmbr/internal/common"
	"mkmbr/internal/geometry"
)

// Write serializes the boot sector and streams every partition, in order,
// to w. The sector is assembled in memory first, so a geometry failure
// leaves the sink untouched. The sink is caller-owned: never closed, never
// seeked, and partial output on error is the caller's to discard.
func Write(w io.Writer, bootstrap []byte, parts []Spec, layouts []Layout, active int) error {
	if len(bootstrap) > BootstrapMax {
		return fmt.Errorf("%w: bootstrap is %d bytes, limit %d", common.ErrInvalid, len(bootstrap), BootstrapMax)
	}
	if len(parts) != len(layouts) {
		return fmt.Errorf("%w: %d specs with %d layouts", common.ErrInvalid, len(parts), len(layouts))
	}
	sec, err := bootSector(bootstrap, parts, layouts, active)
	if err != nil {
		return err
	}
	dst := &sink{w: w}
	if err := dst.put(sec, "boot sector"); err != nil {
		return err
	}
	for i, p := range parts {
		if err := stream(dst, p, layouts[i]); err != nil {
			return err
		}
	}
	return nil
}

func bootSector(bootstrap []byte, parts []Spec, layouts []Layout, active int) ([]byte, error) {
	sec := make([]byte, SectorSize)
	copy(sec, bootstrap)
	for i, p := range parts {
		lo := layouts[i]
		start, err := geometry.FromLBA(lo.StartLBA)
		if err != nil {
			return nil, fmt.Errorf("partition %q start: %w", p.Name, err)
		}
		// The end triple addresses the first sector after the partition,
		// not its last sector. Images already in the field carry this
		// layout, so it is kept as-is.
		end, err := geometry.FromLBA(lo.StartLBA + lo.Sectors)
		if err != nil {
			return nil, fmt.Errorf("partition %q end: %w", p.Name, err)
		}
		off := TableOffset + i*EntrySize
		if i == active-1 {
			sec[off] = 0x80
		}
		sec[off+1] = start.Head
		sec[off+2] = start.Sector
		sec[off+3] = start.Cylinder
		sec[off+4] = p.Type
		sec[off+5] = end.Head
		sec[off+6] = end.Sector
		sec[off+7] = end.Cylinder
		binary.LittleEndian.PutUint32(sec[off+8:], lo.StartLBA)
		binary.LittleEndian.PutUint32(sec[off+12:], lo.Sectors)
	}
	sec[SignatureOffset] = 0x55
	sec[SignatureOffset+1] = 0xAA
	return sec, nil
}

// sink tracks the output offset so write errors can name it.
type sink struct {
	w   io.Writer
	off int64
}

func (s *sink) put(p []byte, what string) error {
	n, err := s.w.Write(p)
	s.off += int64(n)
	if err != nil {
		return fmt.Errorf("write %s at offset %d: %w", what, s.off, err)
	}
	return nil
}

func stream(dst *sink, p Spec, lo Layout) error {
	rc, err := p.Source.Open()
	if err != nil {
		return fmt.Errorf("partition %q: open: %w", p.Name, err)
	}
	defer rc.Close()

	want := int64(lo.ByteLen()) - int64(lo.Padding)
	var copied int64
	buf := make([]byte, 1<<20)
	for {
		n, er := rc.Read(buf)
		if n > 0 {
			if copied+int64(n) > want {
				return fmt.Errorf("partition %q: source grew past planned %d bytes", p.Name, want)
			}
			if err := dst.put(buf[:n], "partition contents"); err != nil {
				return fmt.Errorf("partition %q: %w", p.Name, err)
			}
			copied += int64(n)
		}
		if er == io.EOF {
			break
		}
		if er != nil {
			return fmt.Errorf("partition %q: read: %w", p.Name, er)
		}
	}
	if copied != want {
		return fmt.Errorf("partition %q: source is %d bytes, planned %d", p.Name, copied, want)
	}

	zero := make([]byte, 32<<10)
	left := lo.Padding
	for left > 0 {
		chunk := uint64(len(zero))
		if chunk > left {
			chunk = left
		}
		if err := dst.put(zero[:chunk], "partition padding"); err != nil {
			return fmt.Errorf("partition %q: %w", p.Name, err)
		}
		left -= chunk
	}
	return nil
}
