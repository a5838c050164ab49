package vobsub

import (
	"fmt"
	"os"
)

// SubpictureWriter emits a .sub file (and its companion .idx, via WriteIdx)
// from a list of SubPictures and their bitmaps.
type SubpictureWriter struct {
	codec       RleCodec
	cropOffsetY int
}

// NewSubpictureWriter returns a writer using codec to RLE-encode each
// caption's bitmap. cropOffsetY shifts every subpicture's y position, for
// callers re-muxing onto video that was itself cropped.
func NewSubpictureWriter(codec RleCodec, cropOffsetY int) *SubpictureWriter {
	return &SubpictureWriter{codec: codec, cropOffsetY: cropOffsetY}
}

// WriteAll writes every subpicture in subs to path, and returns the final
// idx seed list (FileOffset/StartPTS populated from where each frame
// actually landed) so the caller can hand it straight to WriteIdx.
func (w *SubpictureWriter) WriteAll(path string, screenHeight int, subs []*SubPicture, bitmaps []Bitmap) ([]*SubPicture, error) {
	if len(subs) != len(bitmaps) {
		return nil, fmt.Errorf("subpicture/bitmap count mismatch: %d vs %d", len(subs), len(bitmaps))
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &BufferError{Msg: fmt.Sprintf("failed to create %q: %v", path, err)}
	}
	defer f.Close()

	out := make([]*SubPicture, 0, len(subs))
	var ofs int64

	for i, sp := range subs {
		yOfs := sp.ImageY - w.cropOffsetY
		if yOfs < 0 {
			yOfs = 0
		} else if yMax := sp.Height - sp.ImageHeight - 2*w.cropOffsetY; yOfs > yMax {
			yOfs = yMax
		}
		adjusted := *sp
		adjusted.ImageY = yOfs

		even, err := w.codec.EncodeLines(bitmaps[i], true)
		if err != nil {
			return nil, fmt.Errorf("encoding even field of subpicture %d: %w", i, err)
		}
		odd, err := w.codec.EncodeLines(bitmaps[i], false)
		if err != nil {
			return nil, fmt.Errorf("encoding odd field of subpicture %d: %w", i, err)
		}

		buf := WriteSubFrame(&adjusted, even, odd, sp.Forced)
		if _, err := f.Write(buf); err != nil {
			return nil, &BufferError{Offset: ofs, Msg: err.Error()}
		}

		out = append(out, &SubPicture{
			FileOffset: uint64(ofs),
			StartPTS:   sp.StartPTS,
			EndPTS:     sp.EndPTS,
			Forced:     sp.Forced,
		})
		ofs += int64(len(buf))
	}

	return out, nil
}
