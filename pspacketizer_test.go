package vobsub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadSubFrameRoundtrip(t *testing.T) {
	sp := &SubPicture{
		StartPTS:   90000,
		EndPTS:     180000,
		Width:      720,
		Height:     480,
		ImageX:     10,
		ImageY:     20,
		ImageWidth: 8,
		ImageHeight: 4,
	}
	sp.PaletteIndices = [4]uint8{0, 1, 2, 3}
	sp.AlphaIndices = [4]uint8{0, 5, 10, 15}

	even := []byte{0x12, 0x34, 0x56}
	odd := []byte{0x78, 0x9a}

	buf := WriteSubFrame(sp, even, odd, false)
	require.NotEmpty(t, buf)
	assert.Zero(t, len(buf)%packSize, "a written subframe must always be a whole number of 0x800-byte packs")

	path := filepath.Join(t.TempDir(), "frame.sub")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	bb, err := OpenByteBuffer(path)
	require.NoError(t, err)
	defer bb.Close()

	readSp := &SubPicture{FileOffset: 0, StartPTS: sp.StartPTS, Width: sp.Width, Height: sp.Height}
	pk := NewPsPacketizer(bb)
	ctrlHeader, warnings, err := pk.ReadSubFrame(readSp, bb.Size())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotEmpty(t, ctrlHeader)

	rle, err := pk.ReadRle(readSp)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, even...), odd...), rle)

	lastAlpha := defaultAlpha
	_, err = parseControlSequence(ctrlHeader, readSp.CtrlOffsetRelative, 0, readSp, &lastAlpha, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, sp.PaletteIndices, readSp.PaletteIndices)
	assert.Equal(t, sp.AlphaIndices, readSp.AlphaIndices)
	assert.Equal(t, sp.ImageX, readSp.ImageX)
	assert.Equal(t, sp.ImageY, readSp.ImageY)
	assert.Equal(t, sp.ImageWidth, readSp.ImageWidth)
	assert.Equal(t, sp.ImageHeight, readSp.ImageHeight)
}

func TestWriteSubFrameForcedShiftsControlHeader(t *testing.T) {
	sp := &SubPicture{StartPTS: 0, EndPTS: 90000, ImageWidth: 2, ImageHeight: 2}
	even := []byte{0x01}
	odd := []byte{0x02}

	forced := WriteSubFrame(sp, even, odd, true)
	unforced := WriteSubFrame(sp, even, odd, false)

	assert.NotEqual(t, forced, unforced)
}
