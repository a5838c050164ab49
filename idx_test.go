package vobsub

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIdx = `# VobSub index file, v7
size: 640x480
org: 10, 20
time offset: 0
palette: 000000, 828282, ffffff, 1c1c1c
langidx: 0
id: en, index: 0
timestamp: 00:00:01:000, filepos: 000000000
timestamp: 00:00:05:500, filepos: 000000800
`

func TestParseIdxBasics(t *testing.T) {
	hdr, subs, err := ParseIdx(strings.NewReader(sampleIdx))
	require.NoError(t, err)

	assert.Equal(t, 640, hdr.ScreenWidth)
	assert.Equal(t, 480, hdr.ScreenHeight)
	assert.Equal(t, 10, hdr.OrgX)
	assert.Equal(t, 20, hdr.OrgY)
	assert.Equal(t, uint32(0x828282), hdr.Palette[1])

	require.Len(t, subs, 2)
	assert.EqualValues(t, 0, subs[0].FileOffset)
	assert.EqualValues(t, 0x800, subs[1].FileOffset)
	assert.Equal(t, int64(90*1000), subs[0].StartPTS)
}

func TestParseIdxIllegalSize(t *testing.T) {
	_, _, err := ParseIdx(strings.NewReader("size: bogus\n"))
	require.Error(t, err)
	var idxErr *IdxError
	require.ErrorAs(t, err, &idxErr)
}

func TestParseIdxLanguageFiltersInactiveStream(t *testing.T) {
	src := `size: 640x480
langidx: 0
id: en, index: 0
timestamp: 00:00:01:000, filepos: 000000000
id: fr, index: 1
timestamp: 00:00:02:000, filepos: 000000800
`
	_, subs, err := ParseIdx(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, subs, 1, "the French-indexed timestamp must be ignored since langidx selects English")
}

func TestParseIntLiteral(t *testing.T) {
	assert.EqualValues(t, 42, parseIntLiteral(" 42 "))
	assert.EqualValues(t, 42, parseIntLiteral("0x2A"))
	assert.EqualValues(t, 16, parseIntLiteral("0x10"))
	assert.EqualValues(t, 2, parseIntLiteral("0b10"))
	assert.EqualValues(t, 8, parseIntLiteral("010"))
	assert.EqualValues(t, 10, parseIntLiteral("10"))
	assert.EqualValues(t, 0, parseIntLiteral("0"))
	assert.EqualValues(t, -1, parseIntLiteral(""))
	assert.EqualValues(t, 0, parseIntLiteral("abc"))
}

func TestWriteIdxHardcodesLangidxZero(t *testing.T) {
	hdr := &IdxHeader{ScreenWidth: 720, ScreenHeight: 576}
	subs := []*SubPicture{{FileOffset: 0, StartPTS: 90000}}

	var buf bytes.Buffer
	require.NoError(t, WriteIdx(&buf, hdr, subs, 2))

	out := buf.String()
	assert.Contains(t, out, "langidx: 0\n", "langidx must always read 0 regardless of the actual configured language index")
	assert.Contains(t, out, "id: de, index: 2", "the id/comment lines must reflect the real language index")
}
