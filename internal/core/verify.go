package core

import (
	"fmt"
	"io"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	dfsmbr "github.com/diskfs/go-diskfs/partition/mbr"

	"mkmbr/internal/common"
	"mkmbr/internal/mbr"
)

// Report is the outcome of a successful image verification.
type Report struct {
	Entries   []mbr.Entry
	ImageSize int64
}

// VerifyImage checks a generated image for structural soundness: boot
// signature, one bootable slot, zeroed unused slots, contiguous layout
// from LBA 1, and a file length matching the table. The decoded table is
// then cross-checked against an independent reader.
func VerifyImage(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	sec := make([]byte, mbr.SectorSize)
	_, err = io.ReadFull(f, sec)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read boot sector: %w", err)
	}

	ents, err := mbr.ReadTable(sec)
	if err != nil {
		return nil, err
	}
	if len(ents) == 0 {
		return nil, fmt.Errorf("%w: no populated partition slots", common.ErrCorrupt)
	}

	used := make(map[int]bool, len(ents))
	bootable := 0
	next := uint32(1)
	total := uint64(mbr.SectorSize)
	for _, e := range ents {
		used[e.Index-1] = true
		if sec[mbr.TableOffset+(e.Index-1)*mbr.EntrySize] == 0x80 {
			bootable++
		}
		if e.StartLBA != next {
			return nil, fmt.Errorf("%w: slot %d starts at lba %d, expected %d", common.ErrCorrupt, e.Index, e.StartLBA, next)
		}
		next += e.Sectors
		total += uint64(e.Sectors) * mbr.SectorSize
	}
	if bootable != 1 {
		return nil, fmt.Errorf("%w: %d bootable slots, expected exactly 1", common.ErrCorrupt, bootable)
	}
	for i := 0; i < mbr.MaxPartitions; i++ {
		if used[i] {
			continue
		}
		off := mbr.TableOffset + i*mbr.EntrySize
		for j := 0; j < mbr.EntrySize; j++ {
			if sec[off+j] != 0 {
				return nil, fmt.Errorf("%w: unused slot %d is not zeroed", common.ErrCorrupt, i+1)
			}
		}
	}
	if uint64(fi.Size()) != total {
		return nil, fmt.Errorf("%w: image is %d bytes, table accounts for %d", common.ErrCorrupt, fi.Size(), total)
	}

	if err := crossCheck(path, ents); err != nil {
		return nil, err
	}
	return &Report{Entries: ents, ImageSize: fi.Size()}, nil
}

// crossCheck re-reads the table with go-diskfs and compares the fields the
// two decoders share.
func crossCheck(path string, ents []mbr.Entry) error {
	d, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return fmt.Errorf("diskfs: open: %w", err)
	}
	defer d.Close()
	pt, err := d.GetPartitionTable()
	if err != nil {
		return fmt.Errorf("diskfs: read table: %w", err)
	}
	t, ok := pt.(*dfsmbr.Table)
	if !ok {
		return fmt.Errorf("%w: diskfs sees a %s table, not mbr", common.ErrCorrupt, pt.Type())
	}
	for _, e := range ents {
		if e.Index > len(t.Partitions) {
			return fmt.Errorf("%w: diskfs table has no slot %d", common.ErrCorrupt, e.Index)
		}
		p := t.Partitions[e.Index-1]
		if p.Start != e.StartLBA || p.Size != e.Sectors {
			return fmt.Errorf("%w: slot %d decodes as %d+%d here, %d+%d via diskfs",
				common.ErrCorrupt, e.Index, e.StartLBA, e.Sectors, p.Start, p.Size)
		}
		if p.Bootable != e.Bootable {
			return fmt.Errorf("%w: slot %d boot flag mismatch via diskfs", common.ErrCorrupt, e.Index)
		}
		if byte(p.Type) != e.Type {
			return fmt.Errorf("%w: slot %d type 0x%02X here, 0x%02X via diskfs",
				common.ErrCorrupt, e.Index, e.Type, byte(p.Type))
		}
	}
	return nil
}
