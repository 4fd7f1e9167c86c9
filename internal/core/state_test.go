package core

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkmbr/internal/common"
	"mkmbr/internal/compress"
	"mkmbr/internal/mbr"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestBuildFromFiles(t *testing.T) {
	st := New()
	st.AddPartitionFile(writeTemp(t, "p1.img", bytes.Repeat([]byte{0xAB}, 1000)), 0x0E)
	st.AddPartitionFile(writeTemp(t, "p2.img", bytes.Repeat([]byte{0xCD}, 512)), 0x83)

	var buf bytes.Buffer
	info, err := st.Build(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), info.Total)
	require.Len(t, buf.Bytes(), 2048)

	ents, err := mbr.ReadTable(buf.Bytes()[:mbr.SectorSize])
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.True(t, ents[0].Bootable)
	assert.Equal(t, byte(0x0E), ents[0].Type)
	assert.Equal(t, uint32(2), ents[0].Sectors)
	assert.Equal(t, uint32(3), ents[1].StartLBA)
}

func TestBuildMissingPartitionFile(t *testing.T) {
	st := New()
	st.AddPartitionFile(filepath.Join(t.TempDir(), "gone.img"), 0x83)

	var buf bytes.Buffer
	_, err := st.Build(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.img")
	assert.Zero(t, buf.Len(), "planning failure must precede output")
}

func TestLoadPartitionCompressed(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, 1000)
	enc, err := compress.Compress(raw, "gzip")
	require.NoError(t, err)

	st := New()
	require.NoError(t, st.LoadPartition(writeTemp(t, "p.img.gz", enc), 0x83, "auto"))

	var buf bytes.Buffer
	info, err := st.Build(&buf)
	require.NoError(t, err)
	// planned on the decompressed size: 1000 -> 2 sectors
	assert.Equal(t, uint64(512+1024), info.Total)
	assert.Equal(t, raw, buf.Bytes()[512:1512])
}

func TestLoadBootstrap(t *testing.T) {
	t.Run("limit enforced", func(t *testing.T) {
		st := New()
		err := st.LoadBootstrap(writeTemp(t, "big.bin", make([]byte, mbr.BootstrapMax+1)), "none")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalid)
	})

	t.Run("446 bytes kept verbatim", func(t *testing.T) {
		code := bytes.Repeat([]byte{0x5A}, mbr.BootstrapMax)
		st := New()
		require.NoError(t, st.LoadBootstrap(writeTemp(t, "boot.bin", code), "none"))
		st.AddPartitionFile(writeTemp(t, "p.img", make([]byte, 512)), 0x83)

		var buf bytes.Buffer
		_, err := st.Build(&buf)
		require.NoError(t, err)
		assert.Equal(t, code, buf.Bytes()[:mbr.BootstrapMax])
	})

	t.Run("compressed bootstrap", func(t *testing.T) {
		code := []byte{0xEB, 0x3C, 0x90}
		enc, err := compress.Compress(code, "zstd")
		require.NoError(t, err)
		st := New()
		require.NoError(t, st.LoadBootstrap(writeTemp(t, "boot.bin.zst", enc), "auto"))
		assert.Equal(t, code, st.Bootstrap)
	})
}

func TestBuildFileAndVerify(t *testing.T) {
	st := New()
	st.AddPartitionFile(writeTemp(t, "p1.img", bytes.Repeat([]byte{1}, 1000)), 0x0E)
	st.AddPartitionFile(writeTemp(t, "p2.img", bytes.Repeat([]byte{2}, 512)), 0x83)

	out := filepath.Join(t.TempDir(), "disk.img")
	info, err := st.BuildFile(out, "none")
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), info.Total)

	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	rep, err := VerifyImage(out)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), rep.ImageSize)
	require.Len(t, rep.Entries, 2)
	assert.Equal(t, uint32(1), rep.Entries[0].StartLBA)
}

func TestBuildFileCompressed(t *testing.T) {
	st := New()
	st.AddPartitionFile(writeTemp(t, "p.img", bytes.Repeat([]byte{7}, 600)), 0x83)

	out := filepath.Join(t.TempDir(), "disk.img.gz")
	_, err := st.BuildFile(out, "gzip")
	require.NoError(t, err)

	enc, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "gzip", compress.Detect(enc))

	raw, err := compress.Decompress(enc, "gzip")
	require.NoError(t, err)
	require.Len(t, raw, 512+1024)
	_, err = mbr.ReadTable(raw[:mbr.SectorSize])
	assert.NoError(t, err)
}

func TestBuildFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	st := New()
	st.AddPartitionFile(filepath.Join(dir, "missing.img"), 0x83)

	out := filepath.Join(dir, "disk.img")
	_, err := st.BuildFile(out, "none")
	require.Error(t, err)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestVerifyCatchesCorruption(t *testing.T) {
	st := New()
	st.AddPartitionFile(writeTemp(t, "p.img", bytes.Repeat([]byte{9}, 512)), 0x83)
	out := filepath.Join(t.TempDir(), "disk.img")
	_, err := st.BuildFile(out, "none")
	require.NoError(t, err)

	t.Run("dirty unused slot", func(t *testing.T) {
		img, err := os.ReadFile(out)
		require.NoError(t, err)
		img[mbr.TableOffset+2*mbr.EntrySize+1] = 0x01 // poke an unused slot
		bad := writeTemp(t, "bad1.img", img)
		_, err = VerifyImage(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unused slot")
	})

	t.Run("second boot flag", func(t *testing.T) {
		st2 := New()
		st2.AddPartitionFile(writeTemp(t, "a.img", make([]byte, 512)), 0x83)
		st2.AddPartitionFile(writeTemp(t, "b.img", make([]byte, 512)), 0x83)
		out2 := filepath.Join(t.TempDir(), "two.img")
		_, err := st2.BuildFile(out2, "none")
		require.NoError(t, err)

		img, err := os.ReadFile(out2)
		require.NoError(t, err)
		img[mbr.TableOffset+mbr.EntrySize] = 0x80 // mark slot 2 bootable too
		bad := writeTemp(t, "bad2.img", img)
		_, err = VerifyImage(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bootable")
	})

	t.Run("truncated image", func(t *testing.T) {
		img, err := os.ReadFile(out)
		require.NoError(t, err)
		bad := writeTemp(t, "bad3.img", img[:len(img)-512])
		_, err = VerifyImage(bad)
		require.Error(t, err)
	})
}
