// Package vobsub decodes and encodes VobSub (.sub/.idx) DVD subtitle
// streams: MPEG-2 Program Stream packs carrying run-length-encoded
// subpicture bitmaps, indexed by a companion plain-text .idx file.
package vobsub

import (
	"image"
	"image/color"
	"os"
	"time"
)

// Stream is the top-level handle on a decoded VobSub pair. It wraps a
// SubpictureReader with the RleCodec wired in, and exposes the capability
// surface as plain methods returning time.Duration rather than raw 90kHz
// ticks.
type Stream struct {
	r *SubpictureReader
}

// Open reads idxPath and opens subPath for decoding, using codec to turn
// RLE buffers into bitmaps.
func Open(subPath, idxPath string, codec RleCodec) (*Stream, error) {
	r, err := OpenSubDvd(subPath, idxPath, parseIdxFile)
	if err != nil {
		return nil, err
	}
	r.SetRleCodec(codec)
	return &Stream{r: r}, nil
}

func parseIdxFile(path string) (*IdxHeader, []*SubPicture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &BufferError{Msg: err.Error()}
	}
	defer f.Close()
	return ParseIdx(f)
}

// Close releases the underlying .sub file handle.
func (s *Stream) Close() error {
	return s.r.Close()
}

// FrameCount returns the number of subpictures in the stream.
func (s *Stream) FrameCount() int {
	return s.r.GetFrameCount()
}

// ForcedFrameCount returns the number of subpictures that Decode has found
// to be forced so far; subpictures not yet decoded are not counted.
func (s *Stream) ForcedFrameCount() int {
	return s.r.ForcedFrameCount()
}

// LanguageIndex returns the language table index recorded in the idx file.
func (s *Stream) LanguageIndex() int {
	return s.r.LanguageIndex()
}

// Decode parses and RLE-decodes subpicture i, returning the non-fatal
// warnings raised while doing so.
func (s *Stream) Decode(i int) ([]Warning, error) {
	return s.r.Decode(i)
}

// Subtitle returns subpicture i as a fully decoded Subtitle. Decode(i) must
// have been called first.
func (s *Stream) Subtitle(i int) (*Subtitle, error) {
	sp, err := s.r.GetSubPicture(i)
	if err != nil {
		return nil, err
	}
	return &Subtitle{
		Start: ticksToDuration(sp.StartPTS),
		Stop:  ticksToDuration(sp.EndPTS),
		Image: s.image(),
	}, nil
}

// image renders the last-decoded bitmap into a paletted image, using the
// resolved 4-entry palette and alpha channel.
func (s *Stream) image() image.Image {
	bm := s.r.GetBitmap()
	pal := s.r.GetPalette()
	alpha := s.r.GetAlpha()

	colors := make(color.Palette, 4)
	for i := range colors {
		argb := pal[i]
		a := uint8(alpha[i]) * 17 // 0..15 -> 0..255
		colors[i] = color.NRGBA{
			R: uint8(argb >> 16),
			G: uint8(argb >> 8),
			B: uint8(argb),
			A: a,
		}
	}

	img := image.NewPaletted(image.Rect(0, 0, bm.Width, bm.Height), colors)
	copy(img.Pix, bm.Indices)
	return img
}

func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * time.Second / PTSDTSClockFrequency
}
