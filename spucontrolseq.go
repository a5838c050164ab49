package vobsub

// SPU control commands, as found in an SP_DCSQ control sequence.
const (
	cmdForcedStart   = 0x00
	cmdStartDisplay  = 0x01
	cmdStopDisplay   = 0x02
	cmdSetPalette    = 0x03
	cmdSetAlpha      = 0x04
	cmdSetCoords     = 0x05
	cmdSetRleOffsets = 0x06
	cmdChangeColCon  = 0x07
	cmdEndControl    = 0xff
)

// defaultAlpha is the value last_alpha is seeded with for a freshly opened
// stream, matching the DVD player convention of "everything opaque until
// told otherwise".
var defaultAlpha = [4]uint8{0, 0xf, 0xf, 0xf}

// readWord reads a big-endian 16-bit value at idx, reporting false if idx
// falls outside ctrl.
func readWord(ctrl []byte, idx int) (int, bool) {
	if idx < 0 || idx+1 >= len(ctrl) {
		return 0, false
	}
	return int(ctrl[idx])<<8 | int(ctrl[idx+1]), true
}

// parseControlSequence walks the SP_DCSQ control sequence chain packed into
// ctrl (the reassembled control header for one subpicture) and fills in sp.
//
// The first sequence has no delay field of its own: it opens directly with a
// 2-byte pointer to where the second sequence begins, and its commands start
// right after at offset 2. Every such pointer found anywhere in the chain
// (this one and every later sequence's own next-sequence field) encodes a
// SPU-relative offset biased by ctrlOffsetRelative, the raw "offset to
// control header" field read from the subpicture's size header; recovering
// a control-buffer-local index out of one means undoing that bias with
// "− ctrlOffsetRelative − 2".
//
// lastAlpha carries the previous subpicture's alpha indices across calls; on
// return it holds this subpicture's alpha indices, so the next call sees the
// value this one ended with. This mirrors the instance-scoped "zero alpha
// workaround" state.
func parseControlSequence(ctrl []byte, ctrlOffsetRelative int, fileOffset int64, sp *SubPicture, lastAlpha *[4]uint8, orgX, orgY int) ([]Warning, error) {
	var warnings []Warning
	ctrlSize := len(ctrl)

	firstWord, ok := readWord(ctrl, 0)
	if !ok {
		return warnings, &FormatError{Offset: fileOffset, Msg: "control header too short for end-sequence offset"}
	}
	endSeqOfs := firstWord - ctrlOffsetRelative - 2
	if endSeqOfs < 0 || endSeqOfs > ctrlSize {
		warnings = append(warnings, warnf(fileOffset, "invalid end sequence offset, no end time"))
		endSeqOfs = ctrlSize
	}

	var alphaSum int
	index := 2
commandLoop:
	for index < endSeqOfs {
		cmd := ctrl[index]
		index++
		switch cmd {
		case cmdForcedStart:
			sp.Forced = true
		case cmdStartDisplay, cmdStopDisplay:
			// no payload

		case cmdSetPalette:
			if index+1 >= len(ctrl) {
				return warnings, &FormatError{Offset: fileOffset, Msg: "truncated palette command"}
			}
			sp.PaletteIndices[3] = ctrl[index] >> 4
			sp.PaletteIndices[2] = ctrl[index] & 0x0f
			sp.PaletteIndices[1] = ctrl[index+1] >> 4
			sp.PaletteIndices[0] = ctrl[index+1] & 0x0f
			index += 2

		case cmdSetAlpha:
			if index+1 >= len(ctrl) {
				return warnings, &FormatError{Offset: fileOffset, Msg: "truncated alpha command"}
			}
			sp.AlphaIndices[3] = ctrl[index] >> 4
			sp.AlphaIndices[2] = ctrl[index] & 0x0f
			sp.AlphaIndices[1] = ctrl[index+1] >> 4
			sp.AlphaIndices[0] = ctrl[index+1] & 0x0f
			alphaSum = int(sp.AlphaIndices[0]) + int(sp.AlphaIndices[1]) + int(sp.AlphaIndices[2]) + int(sp.AlphaIndices[3])
			index += 2

		case cmdSetCoords:
			if index+5 >= len(ctrl) {
				return warnings, &FormatError{Offset: fileOffset, Msg: "truncated coordinates command"}
			}
			x1 := int(ctrl[index])<<4 | int(ctrl[index+1])>>4
			x2 := (int(ctrl[index+1])&0x0f)<<8 | int(ctrl[index+2])
			y1 := int(ctrl[index+3])<<4 | int(ctrl[index+4])>>4
			y2 := (int(ctrl[index+4])&0x0f)<<8 | int(ctrl[index+5])
			sp.ImageX = x1 + orgX
			sp.ImageY = y1 + orgY
			sp.ImageWidth = x2 - x1 + 1
			sp.ImageHeight = y2 - y1 + 1
			index += 6

		case cmdSetRleOffsets:
			if index+3 >= len(ctrl) {
				return warnings, &FormatError{Offset: fileOffset, Msg: "truncated rle offsets command"}
			}
			sp.EvenOffset = int(ctrl[index])<<8 | int(ctrl[index+1])
			sp.EvenOffset -= 4
			sp.OddOffset = int(ctrl[index+2])<<8 | int(ctrl[index+3])
			sp.OddOffset -= 4
			index += 4

		case cmdChangeColCon:
			// Color/contrast change: the payload's palette and alpha bytes
			// sit at fixed offsets 8..11 past the command byte; they only
			// replace what's already set if doing so makes the caption more
			// opaque, mirroring how the DVD player treats a fade update as
			// an upgrade, never a downgrade.
			if index+11 >= len(ctrl) {
				return warnings, &FormatError{Offset: fileOffset, Msg: "truncated color/alpha update command"}
			}
			var updateAlpha [4]uint8
			updateAlpha[3] = ctrl[index+10] >> 4
			updateAlpha[2] = ctrl[index+10] & 0x0f
			updateAlpha[1] = ctrl[index+11] >> 4
			updateAlpha[0] = ctrl[index+11] & 0x0f
			updateSum := int(updateAlpha[0]) + int(updateAlpha[1]) + int(updateAlpha[2]) + int(updateAlpha[3])
			if updateSum > alphaSum {
				alphaSum = updateSum
				sp.AlphaIndices = updateAlpha
				sp.PaletteIndices[3] = ctrl[index+8] >> 4
				sp.PaletteIndices[2] = ctrl[index+8] & 0x0f
				sp.PaletteIndices[1] = ctrl[index+9] >> 4
				sp.PaletteIndices[0] = ctrl[index+9] & 0x0f
			}
			warnings = append(warnings, warnf(fileOffset, "palette update/alpha fading detected, result may be erratic"))

			// Jump into the next sequence's own delay/next-offset header and
			// adopt its end pointer; the delay word read here is immediately
			// superseded by the unconditional chain walk below, which
			// recomputes it the same way once the command loop exits.
			index = endSeqOfs
			if _, ok := readWord(ctrl, index); !ok {
				return warnings, &FormatError{Offset: fileOffset, Msg: "control sequence header truncated"}
			}
			nextWord, ok := readWord(ctrl, index+2)
			if !ok {
				return warnings, &FormatError{Offset: fileOffset, Msg: "control sequence header truncated"}
			}
			endSeqOfs = nextWord - ctrlOffsetRelative - 2
			if endSeqOfs < 0 || endSeqOfs > ctrlSize {
				warnings = append(warnings, warnf(fileOffset, "invalid end sequence offset, no end time"))
				endSeqOfs = ctrlSize
			}
			index += 4

		case cmdEndControl:
			break commandLoop

		default:
			warnings = append(warnings, warnf(fileOffset, "unknown control command 0x%02x, stopping", cmd))
			break commandLoop
		}
	}

	var delay int64
	if endSeqOfs != ctrlSize {
		seqCount := 1
		idx, nextIdx := -1, endSeqOfs
		for nextIdx != idx {
			idx = nextIdx
			w, ok := readWord(ctrl, idx)
			if !ok {
				return warnings, &FormatError{Offset: fileOffset, Msg: "control sequence chain truncated"}
			}
			delay = int64(w) * 1024
			w2, ok := readWord(ctrl, idx+2)
			if !ok {
				return warnings, &FormatError{Offset: fileOffset, Msg: "control sequence chain truncated"}
			}
			nextIdx = w2 - ctrlOffsetRelative - 2
			seqCount++
		}
		if seqCount > 2 {
			warnings = append(warnings, warnf(fileOffset, "more than 2 control sequences in chain (%d)", seqCount))
		}
		sp.EndPTS = sp.StartPTS + delay
	} else {
		sp.EndPTS = sp.StartPTS
	}

	if alphaSum == 0 {
		warnings = append(warnings, warnf(fileOffset, "zero alpha, falling back to previous subpicture's alpha"))
		sp.AlphaIndices = *lastAlpha
	}
	*lastAlpha = sp.AlphaIndices

	sp.snapshotOriginal()
	return warnings, nil
}

// serializeControlSequence builds the control header bytes for one
// subpicture: a display-start sequence carrying the palette/alpha/
// coordinates/rle-offset commands, followed by a bare stop-display
// sequence. forced swaps the leading command for CMD 0 + CMD 1 (forced,
// then display) instead of CMD 1 alone.
//
// The first sequence's leading pointer and the second sequence's own
// next-sequence pointer are both written with the same encoded value: the
// control-buffer-local index where the second sequence begins, biased by
// ctrlOffsetRelative+2 the same way parseControlSequence un-biases it on
// read. Pointing the second sequence at itself is what tells the reader the
// chain ends there.
func serializeControlSequence(sp *SubPicture, evenLen, oddLen int, forced bool) []byte {
	var h []byte
	h = append(h, 0, 0) // placeholder: offset to end sequence

	if forced {
		h = append(h, cmdForcedStart, cmdStartDisplay)
	} else {
		h = append(h, cmdStartDisplay)
	}

	h = append(h, cmdSetPalette,
		(sp.PaletteIndices[3]&0xf)<<4|(sp.PaletteIndices[2]&0x0f),
		(sp.PaletteIndices[1]&0xf)<<4|(sp.PaletteIndices[0]&0x0f))

	h = append(h, cmdSetAlpha,
		(sp.AlphaIndices[3]&0xf)<<4|(sp.AlphaIndices[2]&0x0f),
		(sp.AlphaIndices[1]&0xf)<<4|(sp.AlphaIndices[0]&0x0f))

	x1 := sp.ImageX
	x2 := sp.ImageX + sp.ImageWidth - 1
	y1 := sp.ImageY
	y2 := sp.ImageY + sp.ImageHeight - 1
	h = append(h, cmdSetCoords,
		byte((x1>>4)&0xff),
		byte((x1&0xf)<<4|(x2>>8)&0xf),
		byte(x2&0xff),
		byte((y1>>4)&0xff),
		byte((y1&0xf)<<4|(y2>>8)&0xf),
		byte(y2&0xff))

	oddOfs := evenLen + 4
	h = append(h, cmdSetRleOffsets, 0x00, 0x04, byte(oddOfs>>8), byte(oddOfs))

	h = append(h, cmdEndControl)

	seq2Idx := len(h) // control-buffer-local index where sequence 2 begins

	durationTicks := int((sp.EndPTS - sp.StartPTS) / 1024)
	h = append(h, byte(durationTicks>>8), byte(durationTicks))
	h = append(h, 0, 0) // placeholder: sequence 2's own next-sequence pointer
	h = append(h, cmdStopDisplay, cmdEndControl)

	ctrlOffsetRelative := evenLen + oddLen + 2
	endSeqRaw := seq2Idx + ctrlOffsetRelative + 2
	h[0] = byte(endSeqRaw >> 8)
	h[1] = byte(endSeqRaw)
	h[len(h)-4] = byte(endSeqRaw >> 8)
	h[len(h)-3] = byte(endSeqRaw)

	return h
}
