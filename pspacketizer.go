package vobsub

const packSize = 0x800

// PsPacketizer reassembles subpictures out of the MPEG-2 Program Stream
// packs that make up a .sub file, and serializes them back into the same
// pack layout on the way out.
type PsPacketizer struct {
	bb *ByteBuffer
}

// NewPsPacketizer wraps an already-open .sub file.
func NewPsPacketizer(bb *ByteBuffer) *PsPacketizer {
	return &PsPacketizer{bb: bb}
}

// ReadSubFrame walks the pack chain starting at sp.FileOffset (set by
// IdxParser) up to endOfs (the next subpicture's offset, or the file size
// for the last one), reassembling the control header and RLE fragments for
// one subpicture.
//
// It returns the concatenated control header bytes (the caller hands these
// to parseControlSequence) and fills sp.RleFragments/sp.RleSize so the RLE
// payload can be read lazily later without holding it all in memory here.
func (p *PsPacketizer) ReadSubFrame(sp *SubPicture, endOfs int64) ([]byte, []Warning, error) {
	var warnings []Warning
	var ctrlHeader []byte

	ofs := int64(sp.FileOffset)
	ctrlOfs := int64(-1)
	ctrlSize := -1
	rleBufferFound := 0

	for ofs < endOfs {
		packStart := ofs

		mph, err := p.bb.ReadBytes(ofs, 4)
		if err != nil {
			return nil, warnings, err
		}
		if mph[0] != 0 || mph[1] != 0 || mph[2] != 1 {
			return nil, warnings, &FormatError{Offset: ofs, Msg: "lost sync, no start code found"}
		}

		switch mph[3] {
		case StreamIDPackHeader:
			ofs += 14
			stuffing, err := p.bb.ReadU8(ofs - 1)
			if err != nil {
				return nil, warnings, err
			}
			ofs += int64(stuffing & 0x07)
			continue

		case StreamIDPaddingStream, StreamIDProgramEnd:
			nextOfs := (packStart/packSize + 1) * packSize
			ofs = nextOfs
			continue

		case StreamIDPrivateStream1:
			// fallthrough to the PES handling below

		default:
			warnings = append(warnings, warnf(ofs, "unexpected stream id 0x%02x, skipping to next pack", mph[3]))
			ofs = (packStart/packSize + 1) * packSize
			continue
		}

		var mphArr MPEGHeader
		copy(mphArr[:], mph)
		pesLenBytes, err := p.bb.ReadBytes(ofs+4, 2)
		if err != nil {
			return nil, warnings, err
		}
		extHeader, err := p.bb.ReadBytes(ofs+6, 3)
		if err != nil {
			return nil, warnings, err
		}

		pesh := PESHeader{MPH: mphArr}
		copy(pesh.PacketLength[:], pesLenBytes)
		pesh.Extension = &PESExtension{}
		copy(pesh.Extension.Header[:], extHeader)
		if err := pesh.Validate(); err != nil {
			return nil, warnings, &FormatError{Offset: ofs, Msg: err.Error()}
		}

		packetLen := pesh.GetPacketLength()
		ptsLen := int(pesh.Extension.RemainingHeaderLength())

		extData, err := p.bb.ReadBytes(ofs+9, ptsLen)
		if err != nil {
			return nil, warnings, err
		}
		if err := pesh.ParseExtensionData(extData); err != nil {
			return nil, warnings, &FormatError{Offset: ofs, Msg: err.Error()}
		}

		payloadOfs := ofs + 9 + int64(ptsLen)
		isFirstPack := pesh.Extension.PTSPresent() && ptsLen >= 5

		var rleStart int64
		if isFirstPack {
			streamID, err := p.bb.ReadU8(payloadOfs)
			if err != nil {
				return nil, warnings, err
			}
			if streamID != 0x20 {
				warnings = append(warnings, warnf(ofs, "unexpected substream id 0x%02x, expected 0x20", streamID))
			}

			sizeBytes, err := p.bb.ReadBytes(payloadOfs+1, 4)
			if err != nil {
				return nil, warnings, err
			}
			ctrlOfsRel := int(sizeBytes[2])<<8 | int(sizeBytes[3])
			if ctrlOfsRel-2 < 0 {
				return nil, warnings, &FormatError{Offset: ofs, Msg: "negative rle size, corrupt subpicture"}
			}
			ctrlSize = (int(sizeBytes[0])<<8 | int(sizeBytes[1])) - ctrlOfsRel - 2
			if ctrlSize < 0 {
				return nil, warnings, &FormatError{Offset: ofs, Msg: "negative control header size, corrupt subpicture"}
			}
			sp.CtrlOffsetRelative = ctrlOfsRel
			ctrlOfs = payloadOfs + 1 + 2 + int64(ctrlOfsRel)
			rleStart = payloadOfs + 1 + 4
		} else {
			// Continuation packs carry the substream id byte too. Their pack
			// and PES headers are not SPU payload, so ctrlOfs (computed in the
			// first pack as if the payload were contiguous) moves along by
			// this pack's header size.
			rleStart = payloadOfs + 1
			if ctrlOfs >= 0 {
				ctrlOfs += rleStart - (packStart/packSize)*packSize
			}
		}

		// packetLen counts everything after the packet-length field itself.
		packEnd := ofs + 4 + 2 + int64(packetLen)

		var fragEnd int64
		if ctrlOfs >= 0 && ctrlOfs < packEnd {
			fragEnd = ctrlOfs
		} else {
			fragEnd = packEnd
		}
		if fragEnd > rleStart {
			sp.RleFragments = append(sp.RleFragments, RleFragment{AbsoluteOffset: rleStart, Length: int(fragEnd - rleStart)})
			sp.RleSize += int(fragEnd - rleStart)
			rleBufferFound += int(fragEnd - rleStart)
		}

		if ctrlOfs >= 0 && ctrlOfs < packEnd {
			ctrlStart := ctrlOfs
			if ctrlStart < rleStart {
				ctrlStart = rleStart // control header continued from the previous pack
			}
			chunk, err := p.bb.ReadBytes(ctrlStart, int(packEnd-ctrlStart))
			if err != nil {
				return nil, warnings, err
			}
			ctrlHeader = append(ctrlHeader, chunk...)
		}

		nextOfs := (packStart/packSize + 1) * packSize
		if nextOfs <= packStart {
			return nil, warnings, &FormatError{Offset: ofs, Msg: "pack alignment did not advance"}
		}
		ofs = nextOfs
	}

	if len(ctrlHeader) < ctrlSize {
		warnings = append(warnings, warnf(int64(sp.FileOffset), "control buffer size inconsistent, padding %d missing bytes with 0xff", ctrlSize-len(ctrlHeader)))
		for len(ctrlHeader) < ctrlSize {
			ctrlHeader = append(ctrlHeader, 0xff)
		}
	}
	if len(ctrlHeader) == 0 {
		return nil, warnings, &FormatError{Offset: int64(sp.FileOffset), Msg: "no control header found for subpicture"}
	}
	if rleBufferFound != sp.RleSize {
		return nil, warnings, &FormatError{Offset: int64(sp.FileOffset), Msg: "rle fragment accounting mismatch"}
	}

	return ctrlHeader, warnings, nil
}

// ReadRle reassembles the RLE payload described by sp.RleFragments into a
// single contiguous buffer.
func (p *PsPacketizer) ReadRle(sp *SubPicture) ([]byte, error) {
	buf := make([]byte, 0, sp.RleSize)
	for _, frag := range sp.RleFragments {
		chunk, err := p.bb.ReadBytes(frag.AbsoluteOffset, frag.Length)
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
	}
	return buf, nil
}

// packHeaderTemplate is the fixed MPEG-2 pack header every pack starts with,
// first and subsequent packs alike; its stuffing-info byte (index 13) is
// 0xf8, i.e. no pack stuffing, in all of them.
var packHeaderTemplate = [14]byte{
	0x00, 0x00, 0x01, 0xba, // pack start code
	0x44, 0x02, 0xc4, 0x82, 0x04, 0xa9, // system clock reference
	0x01, 0x89, 0xc3, // multiplexer rate
	0xf8, // stuffing info
}

var headerFirstTemplate = [19]byte{
	0x00, 0x00, 0x01, 0xbd, // private stream 1
	0x00, 0x00, // packet length
	0x81, 0x80, // packet type
	0x05,                   // PTS length
	0x00, 0x00, 0x00, 0x00, 0x00, // PTS
	0x20,       // substream id
	0x00, 0x00, // subpicture size in bytes
	0x00, 0x00, // offset to control header
}

var headerNextTemplate = [10]byte{
	0x00, 0x00, 0x01, 0xbd,
	0x00, 0x00, // packet length
	0x81, 0x00, // packet type
	0x00, // PTS length = 0
	0x20, // substream id
}

// WriteSubFrame serializes one subpicture into its .sub pack representation:
// a chain of 0x800-byte packs carrying the even/odd RLE buffers followed by
// the control header, padded with a trailing padding-stream pack when the
// last pack isn't completely full. It is a free function, not a
// PsPacketizer method, because writing never needs the open file a
// PsPacketizer reads from.
func WriteSubFrame(sp *SubPicture, even, odd []byte, forced bool) []byte {
	ctrl := serializeControlSequence(sp, len(even), len(odd), forced)

	headerFirst := headerFirstTemplate
	ptm := uint64(sp.StartPTS)
	pts := EncodePTS(ptm)
	copy(headerFirst[9:14], pts[:])

	sizeRLE := len(even) + len(odd)
	subpictureSize := sizeRLE + 4 + len(ctrl)
	headerFirst[15] = byte(subpictureSize >> 8)
	headerFirst[16] = byte(subpictureSize)

	// ctrlOfsRel is read back on ReadSubFrame's side as an offset counted
	// from the start of the control-offset field itself (payloadOfs+1+2,
	// right after the subpicture-size field); the 2 accounts for that 2-byte
	// control-offset field, which lies between that point and the RLE data.
	ctrlOfsRel := sizeRLE + 2
	headerFirst[17] = byte(ctrlOfsRel >> 8)
	headerFirst[18] = byte(ctrlOfsRel)

	bufSize := len(packHeaderTemplate) + len(headerFirst) + len(ctrl) + sizeRLE
	numAdditionalPackets := 0
	if bufSize > packSize {
		numAdditionalPackets = 1
		remaining := sizeRLE - (packSize - len(packHeaderTemplate) - len(headerFirst))
		for remaining > packSize-len(packHeaderTemplate)-len(headerNextTemplate)-len(ctrl) {
			remaining -= packSize - len(packHeaderTemplate) - len(headerNextTemplate)
			bufSize += len(packHeaderTemplate) + len(headerNextTemplate)
			numAdditionalPackets++
		}
	}

	bufLen := (1 + numAdditionalPackets) * packSize
	buf := make([]byte, bufLen)

	diff := bufLen - bufSize
	stuffingBytes := 0
	if diff > 0 && diff < 6 {
		stuffingBytes = diff
	}

	ofs := 0
	copy(buf[ofs:], packHeaderTemplate[:])
	ofs += len(packHeaderTemplate)

	packetLen := bufSize - len(packHeaderTemplate) - 6 + stuffingBytes
	if numAdditionalPackets > 0 {
		packetLen = packSize - len(packHeaderTemplate) - 6
	}
	headerFirst[4] = byte(packetLen >> 8)
	headerFirst[5] = byte(packetLen)
	headerFirst[8] = byte(5 + stuffingBytes)

	copy(buf[ofs:], headerFirst[:14])
	ofs += 14
	for i := 0; i < stuffingBytes; i++ {
		buf[ofs] = 0xff
		ofs++
	}
	copy(buf[ofs:], headerFirst[14:])
	ofs += len(headerFirst) - 14

	rle := make([]byte, 0, sizeRLE)
	rle = append(rle, even...)
	rle = append(rle, odd...)

	firstChunk := sizeRLE
	if numAdditionalPackets > 0 {
		firstChunk = packSize - len(packHeaderTemplate) - stuffingBytes - len(headerFirst)
		if firstChunk > sizeRLE {
			firstChunk = sizeRLE
		}
	}
	copy(buf[ofs:], rle[:firstChunk])
	ofs += firstChunk
	ofsRLE := firstChunk

	ctrlWritten := 0
	if numAdditionalPackets == 1 && ofs < packSize {
		for ; ofs < packSize; ofs++ {
			buf[ofs] = ctrl[ctrlWritten]
			ctrlWritten++
		}
	}

	nextHeader := packHeaderTemplate
	nextHeader[13] = 0xf8
	for pkt := 0; pkt < numAdditionalPackets; pkt++ {
		var rleSizeLeft int
		if pkt == numAdditionalPackets-1 {
			rleSizeLeft = sizeRLE - ofsRLE
			packetLen = len(headerNextTemplate) + (len(ctrl) - ctrlWritten) + (sizeRLE - ofsRLE) - 6
		} else {
			packetLen = packSize - len(packHeaderTemplate) - 6
			rleSizeLeft = packSize - len(packHeaderTemplate) - len(headerNextTemplate)
			if rleSizeLeft > sizeRLE-ofsRLE {
				rleSizeLeft = sizeRLE - ofsRLE
			}
		}

		copy(buf[ofs:], nextHeader[:])
		ofs += len(nextHeader)

		headerNext := headerNextTemplate
		headerNext[4] = byte(packetLen >> 8)
		headerNext[5] = byte(packetLen)
		copy(buf[ofs:], headerNext[:])
		ofs += len(headerNext)

		copy(buf[ofs:], rle[ofsRLE:ofsRLE+rleSizeLeft])
		ofs += rleSizeLeft
		ofsRLE += rleSizeLeft

		if pkt != numAdditionalPackets-1 {
			for ; ofs < (pkt+2)*packSize; ofs++ {
				buf[ofs] = ctrl[ctrlWritten]
				ctrlWritten++
			}
		}
	}

	for i := ctrlWritten; i < len(ctrl); i++ {
		buf[ofs] = ctrl[i]
		ofs++
	}

	diff = bufLen - ofs
	if diff >= 6 {
		diff -= 6
		buf[ofs] = 0x00
		buf[ofs+1] = 0x00
		buf[ofs+2] = 0x01
		buf[ofs+3] = 0xbe
		buf[ofs+4] = byte(diff >> 8)
		buf[ofs+5] = byte(diff)
		ofs += 6
		for ; ofs < bufLen; ofs++ {
			buf[ofs] = 0xff
		}
	}

	return buf
}
