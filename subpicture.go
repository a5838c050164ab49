package vobsub

// RleFragment locates one contiguous run of RLE bytes within the source .sub
// file. A subpicture's RLE payload is reassembled by concatenating these in
// order; they exist only for subpictures produced by a read (SubpictureReader
// fills them in, SubpictureWriter never reads them).
type RleFragment struct {
	AbsoluteOffset int64
	Length         int
}

// SubPicture is one displayed DVD caption: the metadata produced by walking
// the idx seed through the MPEG-PS packetizer and the SP_DCSQ control
// sequence. It is created by IdxParser (FileOffset/StartPTS/Width/Height
// only), mutated exactly once by SubpictureReader.Decode, and never mutated
// again by the core afterwards.
type SubPicture struct {
	FileOffset uint64 // byte position of the first pack header in the .sub file
	StartPTS   int64  // 90 kHz ticks
	EndPTS     int64  // 90 kHz ticks; equals StartPTS when no end sequence is present

	Width, Height      int // screen dimensions, copied from idx
	ImageX, ImageY     int // top-left display position, already offset by global org
	ImageWidth         int // bounding rectangle of the bitmap, 1..=Width
	ImageHeight        int // bounding rectangle of the bitmap, 1..=Height

	PaletteIndices [4]uint8 // indices 0..15 into the 16-entry master palette
	AlphaIndices   [4]uint8 // 4-bit alpha values, 0=transparent 15=opaque
	Forced         bool

	EvenOffset, OddOffset int // byte offsets, from the start of the RLE buffer, to each field's RLE stream

	// CtrlOffsetRelative is the raw "offset to control header" word read
	// from the SPU size header during a read (right after the 2-byte total
	// SPU size field). Every next-sequence pointer inside the control header
	// is encoded relative to this value, so it must be threaded through to
	// parseControlSequence to recover control-buffer-local offsets.
	CtrlOffsetRelative int

	RleFragments []RleFragment // populated only by a read; empty for a SubPicture built for writing
	RleSize      int           // total RLE byte count; equals the sum of RleFragments' lengths

	// OriginalPaletteIndices/OriginalAlphaIndices/OriginalImageX/OriginalImageY
	// snapshot the values first parsed, so a caller can mutate the fields
	// above (e.g. during interactive editing) and still re-derive the
	// pristine values for re-encoding.
	OriginalPaletteIndices [4]uint8
	OriginalAlphaIndices   [4]uint8
	OriginalImageX         int
	OriginalImageY         int
}

// snapshotOriginal copies the current palette/alpha/position into the
// Original* fields. Called once, right after a read finishes parsing the
// control sequence.
func (sp *SubPicture) snapshotOriginal() {
	sp.OriginalPaletteIndices = sp.PaletteIndices
	sp.OriginalAlphaIndices = sp.AlphaIndices
	sp.OriginalImageX = sp.ImageX
	sp.OriginalImageY = sp.ImageY
}
