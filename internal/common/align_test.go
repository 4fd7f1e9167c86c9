package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), AlignUp(0, 512))
	assert.Equal(t, uint64(512), AlignUp(1, 512))
	assert.Equal(t, uint64(512), AlignUp(512, 512))
	assert.Equal(t, uint64(1024), AlignUp(513, 512))
	assert.Equal(t, uint64(7), AlignUp(7, 0))
}

func TestPadTo(t *testing.T) {
	assert.Equal(t, uint64(0), PadTo(0, 512))
	assert.Equal(t, uint64(24), PadTo(1000, 512))
	assert.Equal(t, uint64(0), PadTo(1024, 512))
	assert.Equal(t, uint64(511), PadTo(1025, 512))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, uint64(0), CeilDiv(0, 512))
	assert.Equal(t, uint64(1), CeilDiv(1, 512))
	assert.Equal(t, uint64(1), CeilDiv(512, 512))
	assert.Equal(t, uint64(2), CeilDiv(513, 512))
	assert.Equal(t, uint64(9), CeilDiv(9, 0))
}
