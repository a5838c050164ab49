package vobsub

import "fmt"

// IdxError signals a malformed .idx textual sidecar. It is always fatal to the
// parse that raised it.
type IdxError struct {
	Line int
	Msg  string
}

func (e *IdxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("idx line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("idx: %s", e.Msg)
}

// FormatError signals a binary structure problem within a .sub subpicture:
// header mismatch, invalid control buffer size, or out-of-bounds control
// header access. It is fatal to the subpicture being decoded but the caller
// may continue with the next one.
type FormatError struct {
	Offset int64
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error at offset 0x%x: %s", e.Offset, e.Msg)
}

// BufferError signals a failure reading the underlying .sub file.
type BufferError struct {
	Offset int64
	Msg    string
}

func (e *BufferError) Error() string {
	return fmt.Sprintf("buffer error at offset 0x%x: %s", e.Offset, e.Msg)
}

// Warning is a non-fatal condition raised while decoding a subpicture. It is
// always logged through Log and, when the caller wants to inspect what
// happened, accumulated into the slice returned by SubpictureReader.Decode.
type Warning struct {
	SubpictureOffset int64
	Msg              string
}

func (w Warning) String() string {
	return fmt.Sprintf("subpicture at 0x%x: %s", w.SubpictureOffset, w.Msg)
}
