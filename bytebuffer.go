package vobsub

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ByteBuffer is a random-access, non-cursored read view over a .sub file. It
// owns the underlying OS file handle and must be closed once done with;
// OpenByteBuffer guarantees the handle is closed on every error path, and Close is safe to
// call more than once.
//
// Reads never advance an implicit position: callers always pass an explicit
// offset, which is what lets PsPacketizer jump back and forth while
// reassembling a subpicture split across packets.
type ByteBuffer struct {
	file *os.File
	size int64
}

// OpenByteBuffer opens path for random-access reading.
func OpenByteBuffer(path string) (bb *ByteBuffer, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &BufferError{Msg: fmt.Sprintf("failed to open %q: %v", path, err)}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &BufferError{Msg: fmt.Sprintf("failed to stat %q: %v", path, err)}
	}
	return &ByteBuffer{file: f, size: info.Size()}, nil
}

// Size returns the total byte length of the underlying file.
func (bb *ByteBuffer) Size() int64 {
	return bb.size
}

// Close releases the underlying OS file handle. Safe to call multiple times.
func (bb *ByteBuffer) Close() error {
	if bb.file == nil {
		return nil
	}
	err := bb.file.Close()
	bb.file = nil
	return err
}

func (bb *ByteBuffer) readAt(ofs int64, buf []byte) error {
	if ofs < 0 || ofs+int64(len(buf)) > bb.size {
		return &BufferError{Offset: ofs, Msg: fmt.Sprintf("read of %d bytes out of range (file size %d)", len(buf), bb.size)}
	}
	if _, err := bb.file.ReadAt(buf, ofs); err != nil {
		return &BufferError{Offset: ofs, Msg: err.Error()}
	}
	return nil
}

// ReadU8 reads a single byte at ofs.
func (bb *ByteBuffer) ReadU8(ofs int64) (uint8, error) {
	var buf [1]byte
	if err := bb.readAt(ofs, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadU16BE reads a big-endian 16-bit value at ofs.
func (bb *ByteBuffer) ReadU16BE(ofs int64) (uint16, error) {
	var buf [2]byte
	if err := bb.readAt(ofs, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadU32BE reads a big-endian 32-bit value at ofs.
func (bb *ByteBuffer) ReadU32BE(ofs int64) (uint32, error) {
	var buf [4]byte
	if err := bb.readAt(ofs, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadBytes reads length bytes starting at ofs.
func (bb *ByteBuffer) ReadBytes(ofs int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := bb.readAt(ofs, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
