package mbr

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"mkmbr/internal/common"
	"mkmbr/internal/geometry"
)

// Entry is a populated partition-table slot decoded from an image.
type Entry struct {
	Index    int // 1-based table slot
	Bootable bool
	Type     byte
	StartCHS geometry.CHS
	EndCHS   geometry.CHS
	StartLBA uint32
	Sectors  uint32
}

func (e Entry) String() string {
	flag := " "
	if e.Bootable {
		flag = "*"
	}
	return fmt.Sprintf("%d%s type=0x%02X lba=%d+%d start=%s end=%s",
		e.Index, flag, e.Type, e.StartLBA, e.Sectors, e.StartCHS, e.EndCHS)
}

// ReadTable decodes the partition table out of a boot sector. Empty slots
// are skipped; slot numbering in Index stays 1-based over the raw table.
func ReadTable(sec []byte) ([]Entry, error) {
	if len(sec) < SectorSize {
		return nil, fmt.Errorf("%w: short boot sector (%d bytes)", common.ErrCorrupt, len(sec))
	}
	if sec[SignatureOffset] != 0x55 || sec[SignatureOffset+1] != 0xAA {
		return nil, fmt.Errorf("%w: bad boot signature", common.ErrCorrupt)
	}
	var ents []Entry
	for i := 0; i < MaxPartitions; i++ {
		off := TableOffset + i*EntrySize
		typ := sec[off+4]
		count := binary.LittleEndian.Uint32(sec[off+12:])
		if typ == 0 && count == 0 {
			continue
		}
		ents = append(ents, Entry{
			Index:    i + 1,
			Bootable: sec[off] == 0x80,
			Type:     typ,
			StartCHS: geometry.CHS{Head: sec[off+1], Sector: sec[off+2], Cylinder: sec[off+3]},
			EndCHS:   geometry.CHS{Head: sec[off+5], Sector: sec[off+6], Cylinder: sec[off+7]},
			StartLBA: binary.LittleEndian.Uint32(sec[off+8:]),
			Sectors:  count,
		})
	}
	return ents, nil
}

// Detect reads sector 0 of an image file and decodes its table.
func Detect(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DetectR(f)
}

func DetectR(r io.Reader) ([]Entry, error) {
	buf := make([]byte, SectorSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read boot sector: %w", err)
	}
	return ReadTable(buf)
}
