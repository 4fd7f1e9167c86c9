package mbr

import (
	"fmt"
	"io"
	"math"

	"mkmbr/internal/common"
)

const (
	SectorSize    = 512
	BootstrapMax  = 446
	MaxPartitions = 4

	TableOffset     = 446
	EntrySize       = 16
	SignatureOffset = 510
)

// Source supplies one partition's bytes. Size is consulted while planning
// the layout, Open immediately before the bytes are streamed out.
type Source interface {
	Size() (int64, error)
	Open() (io.ReadCloser, error)
}

// Spec describes one partition to place into the image, in table order.
type Spec struct {
	Name   string // identifier carried in errors, usually a path
	Type   byte
	Source Source
}

// Layout is a planned on-disk position for one partition.
type Layout struct {
	StartLBA uint32
	Sectors  uint32
	Padding  uint64 // zero bytes appended after the payload
}

// ByteLen is the padded payload length.
func (l Layout) ByteLen() uint64 {
	return uint64(l.Sectors) * SectorSize
}

// Plan assigns contiguous sector runs starting at LBA 1, one per spec.
// Sector 0 is the boot sector. No partial result is returned on error.
func Plan(parts []Spec, active int) ([]Layout, error) {
	if len(parts) < 1 || len(parts) > MaxPartitions {
		return nil, fmt.Errorf("%w: 1 to %d partitions required, got %d", common.ErrInvalid, MaxPartitions, len(parts))
	}
	if active < 1 || active > len(parts) {
		return nil, fmt.Errorf("%w: active partition must be 1-%d, got %d", common.ErrInvalid, len(parts), active)
	}
	layouts := make([]Layout, len(parts))
	cur := uint64(1)
	for i, p := range parts {
		sz, err := p.Source.Size()
		if err != nil {
			return nil, fmt.Errorf("partition %q: size: %w", p.Name, err)
		}
		if sz < 0 {
			return nil, fmt.Errorf("partition %q: negative size %d", p.Name, sz)
		}
		n := common.CeilDiv(uint64(sz), SectorSize)
		if cur+n > math.MaxUint32 {
			return nil, fmt.Errorf("partition %q: lba range exceeds 32 bits", p.Name)
		}
		layouts[i] = Layout{
			StartLBA: uint32(cur),
			Sectors:  uint32(n),
			Padding:  common.PadTo(uint64(sz), SectorSize),
		}
		cur += n
	}
	return layouts, nil
}

// TotalSize is the byte length of the finished image for a planned layout.
func TotalSize(layouts []Layout) uint64 {
	total := uint64(SectorSize)
	for _, l := range layouts {
		total += l.ByteLen()
	}
	return total
}
