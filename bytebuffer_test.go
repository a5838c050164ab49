package vobsub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestByteBufferReads(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	path := writeTempFile(t, data)

	bb, err := OpenByteBuffer(path)
	require.NoError(t, err)
	defer bb.Close()

	assert.EqualValues(t, len(data), bb.Size())

	b, err := bb.ReadU8(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x02), b)

	u16, err := bb.ReadU16BE(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), u16)

	u32, err := bb.ReadU32BE(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00010203), u32)

	buf, err := bb.ReadBytes(4, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x05, 0x06, 0x07}, buf)
}

func TestByteBufferOutOfRange(t *testing.T) {
	path := writeTempFile(t, []byte{0x00, 0x01})
	bb, err := OpenByteBuffer(path)
	require.NoError(t, err)
	defer bb.Close()

	_, err = bb.ReadBytes(0, 10)
	var bufErr *BufferError
	require.ErrorAs(t, err, &bufErr)
}

func TestByteBufferCloseIdempotent(t *testing.T) {
	path := writeTempFile(t, []byte{0x00})
	bb, err := OpenByteBuffer(path)
	require.NoError(t, err)
	require.NoError(t, bb.Close())
	require.NoError(t, bb.Close())
}
