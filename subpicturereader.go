package vobsub

import "fmt"

// SubpictureReader decodes subpictures out of an already-open .sub file
// given the seed list produced by ParseIdx. It implements the read half of
// the capability surface: Decode walks the MPEG-PS packs for one
// subpicture, parses its control sequence, and (once an RleCodec is
// supplied) decodes its bitmap; the Get* accessors expose whatever the last
// Decode call produced.
type SubpictureReader struct {
	bb    *ByteBuffer
	pk    *PsPacketizer
	codec RleCodec

	hdr  *IdxHeader
	subs []*SubPicture

	lastAlpha [4]uint8

	decodedIndex     int
	decodedBitmap    Bitmap
	decodedForced    bool
	forcedFrameCount int
}

// OpenSubDvd opens subPath/idxPath and returns a ready-to-decode reader. The
// returned reader owns the .sub file handle; Close releases it.
func OpenSubDvd(subPath, idxPath string, idxReader func(path string) (*IdxHeader, []*SubPicture, error)) (*SubpictureReader, error) {
	hdr, subs, err := idxReader(idxPath)
	if err != nil {
		return nil, err
	}
	bb, err := OpenByteBuffer(subPath)
	if err != nil {
		return nil, err
	}
	r := &SubpictureReader{
		bb:        bb,
		pk:        NewPsPacketizer(bb),
		hdr:       hdr,
		subs:      subs,
		lastAlpha: defaultAlpha,
	}
	for _, sp := range subs {
		if sp.Forced {
			r.forcedFrameCount++
		}
	}
	return r, nil
}

// SetRleCodec installs the RLE engine used by Decode to produce a bitmap.
// Decode still succeeds without one having been set; only GetBitmap (and
// the image Stream.Subtitle renders from it) requires it.
func (r *SubpictureReader) SetRleCodec(codec RleCodec) {
	r.codec = codec
}

// GetFrameCount returns the number of subpictures in the stream.
func (r *SubpictureReader) GetFrameCount() int {
	return len(r.subs)
}

// GetSubPicture returns the metadata for subpicture i, as last decoded (or
// as seeded from the idx if Decode has not yet been called for it).
func (r *SubpictureReader) GetSubPicture(i int) (*SubPicture, error) {
	if i < 0 || i >= len(r.subs) {
		return nil, fmt.Errorf("subpicture index %d out of range", i)
	}
	return r.subs[i], nil
}

// GetStartTime returns subpicture i's display start, in 90kHz ticks.
func (r *SubpictureReader) GetStartTime(i int) (int64, error) {
	sp, err := r.GetSubPicture(i)
	if err != nil {
		return 0, err
	}
	return sp.StartPTS, nil
}

// GetEndTime returns subpicture i's display end, in 90kHz ticks.
func (r *SubpictureReader) GetEndTime(i int) (int64, error) {
	sp, err := r.GetSubPicture(i)
	if err != nil {
		return 0, err
	}
	return sp.EndPTS, nil
}

// IsForced reports whether subpicture i carries the forced-display flag.
func (r *SubpictureReader) IsForced(i int) (bool, error) {
	sp, err := r.GetSubPicture(i)
	if err != nil {
		return false, err
	}
	return sp.Forced, nil
}

// ForcedFrameCount returns the number of subpictures known to be forced: each
// subpicture counts once, the first time Decode finds its forced command.
// Subpictures not yet decoded are not counted.
func (r *SubpictureReader) ForcedFrameCount() int {
	return r.forcedFrameCount
}

// LanguageIndex returns the language table index recorded in the idx header.
func (r *SubpictureReader) LanguageIndex() int {
	return r.hdr.LanguageIdx
}

// Decode parses subpicture i's MPEG-PS pack chain and control sequence, and,
// if an RleCodec has been set, decodes its bitmap. It returns any non-fatal
// warnings raised along the way.
func (r *SubpictureReader) Decode(i int) ([]Warning, error) {
	sp, err := r.GetSubPicture(i)
	if err != nil {
		return nil, err
	}

	endOfs := int64(r.bb.Size())
	if i < len(r.subs)-1 {
		endOfs = int64(r.subs[i+1].FileOffset)
	}

	ctrlHeader, warnings, err := r.pk.ReadSubFrame(sp, endOfs)
	if err != nil {
		return warnings, err
	}

	wasForced := sp.Forced
	ctrlWarnings, err := parseControlSequence(ctrlHeader, sp.CtrlOffsetRelative, int64(sp.FileOffset), sp, &r.lastAlpha, r.hdr.OrgX, r.hdr.OrgY)
	warnings = append(warnings, ctrlWarnings...)
	if err != nil {
		return warnings, err
	}
	if sp.Forced && !wasForced {
		r.forcedFrameCount++
	}

	r.decodedIndex = i
	r.decodedForced = sp.Forced

	if r.codec != nil {
		rle, err := r.pk.ReadRle(sp)
		if err != nil {
			return warnings, err
		}
		bitmap, err := r.codec.DecodeImage(sp, rle, transparentPaletteIndex(sp))
		if err != nil {
			return warnings, err
		}
		r.decodedBitmap = bitmap
	}

	return warnings, nil
}

// transparentPaletteIndex picks the lowest-alpha palette entry as the
// background/transparent color, matching the source decoder's notion of
// "primary color" used when cropping and compositing a bitmap.
func transparentPaletteIndex(sp *SubPicture) int {
	minIdx, minAlpha := 0, sp.AlphaIndices[0]
	for i, a := range sp.AlphaIndices {
		if a < minAlpha {
			minIdx, minAlpha = i, a
		}
	}
	return minIdx
}

// PrimaryColorIndex returns the palette slot (0-3) used most often by the
// last decoded subpicture's bitmap: a cheap heuristic for the caption's
// dominant color, computed on demand rather than stored.
func (r *SubpictureReader) PrimaryColorIndex() int {
	var counts [4]int
	for _, idx := range r.decodedBitmap.Indices {
		if int(idx) < len(counts) {
			counts[idx]++
		}
	}
	maxIdx := 0
	for i, c := range counts {
		if c > counts[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}

// GetBitmap returns the last decoded subpicture's raw palette-index bitmap.
func (r *SubpictureReader) GetBitmap() Bitmap {
	return r.decodedBitmap
}

// GetPalette returns the RGB colors of the last decoded subpicture's 4
// palette entries, resolved through the idx header's 16-entry master palette.
func (r *SubpictureReader) GetPalette() [4]uint32 {
	return r.resolvePalette(r.subs[r.decodedIndex].PaletteIndices)
}

// GetOriginalPalette returns the palette as first parsed, ignoring any
// mutation a caller may have made to the SubPicture since.
func (r *SubpictureReader) GetOriginalPalette() [4]uint32 {
	return r.resolvePalette(r.subs[r.decodedIndex].OriginalPaletteIndices)
}

func (r *SubpictureReader) resolvePalette(indices [4]uint8) [4]uint32 {
	var out [4]uint32
	for i, idx := range indices {
		out[i] = r.hdr.Palette[idx&0x0f]
	}
	return out
}

// GetAlpha returns the last decoded subpicture's 4 alpha values (0-15).
func (r *SubpictureReader) GetAlpha() [4]uint8 {
	return r.subs[r.decodedIndex].AlphaIndices
}

// GetOriginalAlpha returns the alpha values as first parsed.
func (r *SubpictureReader) GetOriginalAlpha() [4]uint8 {
	return r.subs[r.decodedIndex].OriginalAlphaIndices
}

// Close releases the underlying .sub file handle.
func (r *SubpictureReader) Close() error {
	return r.bb.Close()
}
