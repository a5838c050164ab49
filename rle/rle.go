// Package rle is a reference implementation of the vobsub.RleCodec
// interface: the nibble-based run-length scheme used by DVD subpictures to
// compress each interlaced field of a 2-bit image into a byte stream.
//
// Each line is byte-aligned and encoded independently. A run is a
// variable-width nibble code: 1, 2, 3 or 4 nibbles are read until the
// accumulated value clears that width's threshold, then the top bits give
// the run length and the bottom 2 bits give the color. A 4-nibble code whose
// run length bits are all 0 means "run to the end of the line" in its color.
package rle

import (
	"fmt"

	"github.com/hekmon/vobsubcodec"
)

// Codec implements vobsub.RleCodec using the nibble RLE scheme.
type Codec struct{}

// New returns a ready-to-use Codec.
func New() *Codec {
	return &Codec{}
}

type nibbleReader struct {
	buf    []byte
	bitPos int // in nibbles, i.e. 4-bit units
}

func (n *nibbleReader) nibble() (uint8, bool) {
	byteIdx := n.bitPos / 2
	if byteIdx >= len(n.buf) {
		return 0, false
	}
	var v uint8
	if n.bitPos%2 == 0 {
		v = n.buf[byteIdx] >> 4
	} else {
		v = n.buf[byteIdx] & 0x0f
	}
	n.bitPos++
	return v, true
}

// alignByte advances to the next byte boundary, matching the format's rule
// that every encoded line starts on a fresh byte.
func (n *nibbleReader) alignByte() {
	if n.bitPos%2 != 0 {
		n.bitPos++
	}
}

// readRun decodes one run: returns (length, color, ok). length 0 means
// "rest of the line".
func (n *nibbleReader) readRun() (length int, color uint8, ok bool) {
	var val uint16 // a 4-nibble code needs up to 10 significant bits
	var nib uint8
	var got bool

	nib, got = n.nibble()
	if !got {
		return 0, 0, false
	}
	val = uint16(nib)
	if val >= 0x4 {
		return int(val >> 2), uint8(val & 3), true
	}

	nib, got = n.nibble()
	if !got {
		return 0, 0, false
	}
	val = val<<4 | uint16(nib)
	if val >= 0x10 {
		return int(val >> 2), uint8(val & 3), true
	}

	nib, got = n.nibble()
	if !got {
		return 0, 0, false
	}
	val = val<<4 | uint16(nib)
	if val >= 0x40 {
		return int(val >> 2), uint8(val & 3), true
	}

	nib, got = n.nibble()
	if !got {
		return 0, 0, false
	}
	val = val<<4 | uint16(nib)
	return int(val >> 2), uint8(val & 3), true
}

// DecodeImage decompresses the interleaved even/odd RLE buffer described by
// sp into a Bitmap, one nibble-RLE stream per field, doubling into the
// output's rows.
func (c *Codec) DecodeImage(sp *vobsub.SubPicture, buffer []byte, transparentIndex int) (vobsub.Bitmap, error) {
	width, height := sp.ImageWidth, sp.ImageHeight
	if width <= 0 || height <= 0 {
		return vobsub.Bitmap{}, fmt.Errorf("invalid subpicture dimensions %dx%d", width, height)
	}

	bm := vobsub.Bitmap{Width: width, Height: height, Indices: make([]uint8, width*height)}
	for i := range bm.Indices {
		bm.Indices[i] = uint8(transparentIndex)
	}

	if sp.EvenOffset < 0 || sp.OddOffset < 0 || sp.EvenOffset >= len(buffer) || sp.OddOffset >= len(buffer) {
		return bm, fmt.Errorf("rle field offsets out of range (even=%d odd=%d len=%d)", sp.EvenOffset, sp.OddOffset, len(buffer))
	}

	if err := decodeField(&nibbleReader{buf: buffer[sp.EvenOffset:sp.OddOffset]}, &bm, 0); err != nil {
		return bm, fmt.Errorf("decoding even field: %w", err)
	}
	if err := decodeField(&nibbleReader{buf: buffer[sp.OddOffset:]}, &bm, 1); err != nil {
		return bm, fmt.Errorf("decoding odd field: %w", err)
	}

	return bm, nil
}

func decodeField(r *nibbleReader, bm *vobsub.Bitmap, startRow int) error {
	for y := startRow; y < bm.Height; y += 2 {
		x := 0
		for x < bm.Width {
			length, color, ok := r.readRun()
			if !ok {
				return fmt.Errorf("truncated rle stream at row %d", y)
			}
			if length == 0 {
				length = bm.Width - x
			}
			if x+length > bm.Width {
				length = bm.Width - x
			}
			rowOfs := y*bm.Width + x
			for i := 0; i < length; i++ {
				bm.Indices[rowOfs+i] = color
			}
			x += length
		}
		r.alignByte()
	}
	return nil
}

type nibbleWriter struct {
	out    []byte
	pos    int // in nibbles
}

func (w *nibbleWriter) writeNibble(v uint8) {
	byteIdx := w.pos / 2
	for byteIdx >= len(w.out) {
		w.out = append(w.out, 0)
	}
	if w.pos%2 == 0 {
		w.out[byteIdx] = v << 4
	} else {
		w.out[byteIdx] |= v & 0x0f
	}
	w.pos++
}

func (w *nibbleWriter) alignByte() {
	if w.pos%2 != 0 {
		w.writeNibble(0)
	}
}

// maxRunLength is the longest run writeRun can encode as a counted code (as
// opposed to the "rest of line" code): the 4-nibble code tops out at
// val == 1023, and val is length<<2|color.
const maxRunLength = 255

// writeRun picks the shortest nibble-width code that fits length/color,
// using the "rest of line" code (4 nibbles, zero length, color in the last
// nibble) when told to. length
// must be in [1, maxRunLength] for a counted code.
//
// A code's nibble count is decided by how many leading zero nibbles get
// read before the accumulated value clears that width's threshold
// (0x10, 0x40, then no further threshold), so encoding has to reproduce the
// same leading-zero pattern the reader expects, not just pick "the smallest
// nibble count that holds the value".
func (w *nibbleWriter) writeRun(length int, color uint8, restOfLine bool) {
	if restOfLine {
		// length 0 is what signals "rest of line" to the reader (it fills
		// the remainder of the row), so the 4-nibble code must still carry
		// color in its low 2 bits: only the top bits (the length) are zero.
		w.writeNibble(0)
		w.writeNibble(0)
		w.writeNibble(0)
		w.writeNibble(color & 0x3)
		return
	}
	val := uint16(length)<<2 | uint16(color)
	switch {
	case val < 0x10:
		w.writeNibble(uint8(val))
	case val < 0x40:
		w.writeNibble(uint8(val >> 4))
		w.writeNibble(uint8(val & 0xf))
	case val < 0x100:
		w.writeNibble(0)
		w.writeNibble(uint8(val >> 4))
		w.writeNibble(uint8(val & 0xf))
	default:
		w.writeNibble(0)
		w.writeNibble(uint8(val >> 8))
		w.writeNibble(uint8((val >> 4) & 0xf))
		w.writeNibble(uint8(val & 0xf))
	}
}

// EncodeLines compresses every even (or odd) row of bitmap into its
// nibble-RLE byte stream.
func (c *Codec) EncodeLines(bitmap vobsub.Bitmap, evenField bool) ([]byte, error) {
	start := 1
	if evenField {
		start = 0
	}

	w := &nibbleWriter{}
	for y := start; y < bitmap.Height; y += 2 {
		x := 0
		for x < bitmap.Width {
			color := bitmap.Indices[y*bitmap.Width+x]
			runLen := 1
			for x+runLen < bitmap.Width && bitmap.Indices[y*bitmap.Width+x+runLen] == color && runLen < maxRunLength {
				runLen++
			}
			if x+runLen >= bitmap.Width {
				w.writeRun(0, color, true)
			} else {
				w.writeRun(runLen, color, false)
			}
			x += runLen
		}
		w.alignByte()
	}

	return w.out, nil
}
