package rle

import (
	"testing"

	"github.com/hekmon/vobsubcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	bm := vobsub.Bitmap{
		Width:  6,
		Height: 4,
		Indices: []uint8{
			0, 0, 0, 1, 1, 1,
			2, 2, 3, 3, 3, 3,
			1, 1, 1, 1, 1, 1,
			0, 1, 2, 3, 0, 1,
		},
	}

	c := New()
	even, err := c.EncodeLines(bm, true)
	require.NoError(t, err)
	odd, err := c.EncodeLines(bm, false)
	require.NoError(t, err)

	buffer := append(append([]byte{}, even...), odd...)
	sp := &vobsub.SubPicture{
		ImageWidth:  bm.Width,
		ImageHeight: bm.Height,
		EvenOffset:  0,
		OddOffset:   len(even),
	}

	decoded, err := c.DecodeImage(sp, buffer, 0)
	require.NoError(t, err)
	assert.Equal(t, bm.Indices, decoded.Indices)
}

func TestDecodeImageRejectsBadOffsets(t *testing.T) {
	c := New()
	sp := &vobsub.SubPicture{ImageWidth: 2, ImageHeight: 2, EvenOffset: 100, OddOffset: 200}
	_, err := c.DecodeImage(sp, []byte{0x00}, 0)
	require.Error(t, err)
}
