package vobsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain assembles a single control-sequence chain: a display-start
// sequence carrying the given commands (no delay field of its own, just the
// leading offset-to-sequence-2 pointer), followed by a bare stop sequence
// that points back at itself. ctrlOffsetRelative is baked into both pointer
// values the same way a real subpicture's SPU header would bias them.
func buildChain(ctrlOffsetRelative int, commands []byte) []byte {
	seq2Idx := 2 + len(commands)
	raw := seq2Idx + ctrlOffsetRelative + 2

	var buf []byte
	buf = append(buf, byte(raw>>8), byte(raw)) // sequence 1: offset to sequence 2
	buf = append(buf, commands...)
	buf = append(buf, 0x00, 0x00) // sequence 2 delay: 0, takes effect immediately
	buf = append(buf, byte(raw>>8), byte(raw)) // sequence 2: offset to itself, terminates the chain
	buf = append(buf, cmdStopDisplay, cmdEndControl)
	return buf
}

func TestParseControlSequencePaletteAndAlpha(t *testing.T) {
	commands := []byte{
		0x03, 0x21, 0x43, // palette
		0x04, 0xf0, 0x0f, // alpha
		0xff,
	}
	ctrl := buildChain(0, commands)

	sp := &SubPicture{StartPTS: 1000}
	var lastAlpha = defaultAlpha
	warnings, err := parseControlSequence(ctrl, 0, 0, sp, &lastAlpha, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, [4]uint8{3, 4, 1, 2}, sp.PaletteIndices)
	assert.Equal(t, [4]uint8{0xf, 0, 0, 0xf}, sp.AlphaIndices)
}

func TestParseControlSequenceZeroAlphaFallback(t *testing.T) {
	commands := []byte{
		0x04, 0x00, 0x00, // alpha all zero
		0xff,
	}
	ctrl := buildChain(0, commands)

	sp := &SubPicture{StartPTS: 0}
	lastAlpha := [4]uint8{1, 2, 3, 4}
	warnings, err := parseControlSequence(ctrl, 0, 0, sp, &lastAlpha, 0, 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, [4]uint8{1, 2, 3, 4}, sp.AlphaIndices, "zero alpha must fall back to the previous subpicture's alpha")
	assert.Equal(t, [4]uint8{1, 2, 3, 4}, lastAlpha)
}

func TestParseControlSequenceCoordinatesWithOrgOffset(t *testing.T) {
	// CMD 5 payload is 6 bytes packing x1, x2, y1, y2 as 12-bit fields:
	// x1=0x000, x2=0x010 -> width = 17; y1=0x000, y2=0x020 -> height = 33.
	commands := []byte{
		0x05,
		0x00, 0x00, 0x10,
		0x00, 0x00, 0x20,
		0xff,
	}
	ctrl := buildChain(0, commands)

	sp := &SubPicture{StartPTS: 0}
	lastAlpha := defaultAlpha
	_, err := parseControlSequence(ctrl, 0, 0, sp, &lastAlpha, 5, 7)
	require.NoError(t, err)

	assert.Equal(t, 5, sp.ImageX)
	assert.Equal(t, 7, sp.ImageY)
	assert.Equal(t, 17, sp.ImageWidth)
	assert.Equal(t, 33, sp.ImageHeight)
}

func TestParseControlSequenceUnknownCommandStops(t *testing.T) {
	commands := []byte{
		0x03, 0x21, 0x43, // palette parses fine
		0x04, 0x12, 0x34, // alpha set to a nonzero value before the unknown command
		0x09,             // unknown command
		0x04, 0xff, 0xff, // would overwrite alpha, must never be reached
	}
	ctrl := buildChain(0, commands)

	sp := &SubPicture{StartPTS: 0}
	lastAlpha := [4]uint8{1, 2, 3, 4}
	warnings, err := parseControlSequence(ctrl, 0, 0, sp, &lastAlpha, 0, 0)
	require.NoError(t, err)
	require.Len(t, warnings, 1, "only the unknown-command warning is expected; alpha was never zero so no fallback fires")
	assert.Equal(t, [4]uint8{3, 4, 1, 2}, sp.PaletteIndices)
	assert.NotEqual(t, [4]uint8{0xf, 0xf, 0xf, 0xf}, sp.AlphaIndices, "the CMD 4 after the unknown command must never be reached")
}

func TestParseControlSequenceTruncated(t *testing.T) {
	sp := &SubPicture{}
	lastAlpha := defaultAlpha
	_, err := parseControlSequence([]byte{0x00}, 0, 0, sp, &lastAlpha, 0, 0)
	require.Error(t, err)
}

// TestParseControlSequenceSpecS2Example decodes the literal control header
// bytes from the specification's S2 scenario. The two "offset to sequence 2"
// pointers (0x0004, appearing both at the very start and right after the
// display duration) only resolve to the actual position of sequence 2 in
// this 28-byte buffer when ctrlOffsetRelative is -20, so that is the value
// this test supplies; a real subpicture would never carry a negative
// ctrl_offset_relative; it falls out of solving the example's own numbers.
//
// The example's stated image rect, (0,0)-(15,31), does not reconcile with
// its own CMD 5 payload bytes under the 12-bit packing this parser shares
// with the original decoder (SubDvd.java's readSubFrame): those bytes
// decode to a much larger rectangle. Palette, alpha, RLE offsets and the
// chained end time all check out exactly as specified, so only the rect
// assertion below reflects what the shared formula actually produces
// instead of the example's prose.
func TestParseControlSequenceSpecS2Example(t *testing.T) {
	ctrl := []byte{
		0x00, 0x04, 0x01, 0x03, 0x32, 0x10, 0x04, 0xFF, 0xFF,
		0x05, 0x00, 0x01, 0x00, 0x00, 0x02, 0x00,
		0x06, 0x00, 0x04, 0x00, 0x10, 0xFF,
		0x00, 0x19, 0x00, 0x04, 0x02, 0xFF,
	}
	require.Len(t, ctrl, 28)

	sp := &SubPicture{StartPTS: 1000}
	lastAlpha := defaultAlpha
	warnings, err := parseControlSequence(ctrl, -20, 0, sp, &lastAlpha, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, [4]uint8{0, 1, 2, 3}, sp.PaletteIndices)
	assert.Equal(t, [4]uint8{15, 15, 15, 15}, sp.AlphaIndices)
	assert.Equal(t, 0, sp.EvenOffset)
	assert.Equal(t, 12, sp.OddOffset)
	assert.False(t, sp.Forced)
	assert.Equal(t, sp.StartPTS+25*1024, sp.EndPTS)

	assert.Equal(t, 0, sp.ImageX)
	assert.Equal(t, 0, sp.ImageY)
	assert.Equal(t, 257, sp.ImageWidth)
	assert.Equal(t, 513, sp.ImageHeight)
}
