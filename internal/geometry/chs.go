package geometry

import (
	"errors"
	"fmt"
)

// Fixed legacy BIOS translation, not the geometry of any real disk.
const (
	SectorsPerHead   = 63
	HeadsPerCylinder = 16
	MaxCylinder      = 0x3FF
)

var ErrChsRange = errors.New("lba not representable in chs")

// CHS is a packed partition-table address triple.
// Sector carries the 6-bit 1-based sector plus the two high cylinder bits;
// Cylinder carries the low eight cylinder bits.
type CHS struct {
	Head     byte
	Sector   byte
	Cylinder byte
}

// Overflow marks addresses beyond the reach of the translation.
var Overflow = CHS{0xFF, 0xFF, 0xFF}

func FromLBA(lba uint32) (CHS, error) {
	s := lba % SectorsPerHead
	h := (lba / SectorsPerHead) % HeadsPerCylinder
	c := lba / (SectorsPerHead * HeadsPerCylinder)
	if c > MaxCylinder {
		return Overflow, fmt.Errorf("lba %d: cylinder %d exceeds %d: %w", lba, c, MaxCylinder, ErrChsRange)
	}
	return CHS{
		Head:     byte(h),
		Sector:   byte((s + 1) | ((c >> 8) << 6)),
		Cylinder: byte(c & 0xFF),
	}, nil
}

// Unpack splits the packed triple back into its logical fields.
func (a CHS) Unpack() (cylinder uint16, head, sector byte) {
	cylinder = uint16(a.Sector>>6)<<8 | uint16(a.Cylinder)
	head = a.Head
	sector = a.Sector & 0x3F
	return
}

func (a CHS) String() string {
	if a == Overflow {
		return "c/h/s overflow"
	}
	c, h, s := a.Unpack()
	return fmt.Sprintf("c%d/h%d/s%d", c, h, s)
}
