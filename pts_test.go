package vobsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePTSRoundtrip(t *testing.T) {
	cases := []uint64{0, 1, 89999, 90000, 1 << 20, (1 << 33) - 1}
	for _, ticks := range cases {
		raw := EncodePTS(ticks)
		got := DecodePTS(raw[:])
		assert.Equal(t, ticks, got, "roundtrip for %d", ticks)
	}
}

func TestDecodePTSMarkerBits(t *testing.T) {
	raw := EncodePTS(12345678)
	assert.Equal(t, byte(0x20), raw[0]&0xF0, "marker nibble must carry the fixed 0010 prefix pattern")
	assert.Equal(t, byte(0x01), raw[2]&0x01, "byte 2 marker bit must be set")
	assert.Equal(t, byte(0x01), raw[4]&0x01, "byte 4 marker bit must be set")
}

func TestComputePTSZeroWhenAbsent(t *testing.T) {
	ext := &PESExtensionData{}
	require.Equal(t, int64(0), int64(ext.ComputePTS()))
}
