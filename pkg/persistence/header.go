// Package persistence defines the on-disk layout shared by the read stores:
// a fixed 64-byte header followed by a kind-specific payload.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	// Magic identifies a store file ("RGPH" little-endian).
	Magic = 0x48504752

	// Version is bumped whenever a payload layout changes.
	Version = 1

	// HeaderSize keeps every payload 8-byte aligned.
	HeaderSize = 64

	crcOffset = HeaderSize - 4
)

// Kind tells which store a file belongs to.
type Kind uint32

const (
	KindReadSequences Kind = iota + 1
	KindReadFlags
	KindReadNames
	KindAlignmentData
	KindAlignmentTable
)

func (k Kind) String() string {
	switch k {
	case KindReadSequences:
		return "ReadSequences"
	case KindReadFlags:
		return "ReadFlags"
	case KindReadNames:
		return "ReadNames"
	case KindAlignmentData:
		return "AlignmentData"
	case KindAlignmentTable:
		return "AlignmentTable"
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// FileName is the name the store file of this kind has inside a data directory.
func (k Kind) FileName() string {
	return k.String() + ".bin"
}

var (
	// ErrInvalidMagic indicates the file is not a store file.
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrChecksumMismatch indicates a damaged header.
	ErrChecksumMismatch = errors.New("header crc32 checksum mismatch")
	// ErrUnsupportedVersion indicates a file written by an incompatible layout.
	ErrUnsupportedVersion = errors.New("unsupported layout version")
	// ErrKindMismatch indicates a file of another store was opened.
	ErrKindMismatch = errors.New("store kind mismatch")
	// ErrTruncated indicates the payload is shorter than the header declares.
	ErrTruncated = errors.New("truncated store file")
)

// Header is the fixed prefix of every store file.
// Format: [Magic(4)][Version(4)][Kind(4)][Reserved(4)][Count(8)][Aux(8)][Reserved(28)][CRC(4)]
type Header struct {
	Kind Kind
	// Count is the number of primary elements: reads, or alignments.
	Count uint64
	// Aux is kind-specific: total bases, total name bytes, or table entries.
	Aux uint64
}

// Encode renders the header with its checksum.
func (h Header) Encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], Magic)
	binary.LittleEndian.PutUint32(b[4:8], Version)
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Kind))
	binary.LittleEndian.PutUint64(b[16:24], h.Count)
	binary.LittleEndian.PutUint64(b[24:32], h.Aux)
	binary.LittleEndian.PutUint32(b[crcOffset:], crc32.ChecksumIEEE(b[:crcOffset]))
	return b
}

// DecodeHeader validates and parses the header at the start of b.
// Only the header is checksummed; payloads are served lazily and never scanned.
func DecodeHeader(b []byte, want Kind) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrTruncated
	}
	if binary.LittleEndian.Uint32(b[0:4]) != Magic {
		return Header{}, ErrInvalidMagic
	}
	if crc32.ChecksumIEEE(b[:crcOffset]) != binary.LittleEndian.Uint32(b[crcOffset:HeaderSize]) {
		return Header{}, ErrChecksumMismatch
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	h := Header{
		Kind:  Kind(binary.LittleEndian.Uint32(b[8:12])),
		Count: binary.LittleEndian.Uint64(b[16:24]),
		Aux:   binary.LittleEndian.Uint64(b[24:32]),
	}
	if h.Kind != want {
		return Header{}, fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, want, h.Kind)
	}
	return h, nil
}

// Payload returns the bytes after the header, checking there are at least n of them.
func Payload(b []byte, n uint64) ([]byte, error) {
	if uint64(len(b)) < HeaderSize+n {
		return nil, fmt.Errorf("%w: need %d payload bytes, have %d", ErrTruncated, n, len(b)-HeaderSize)
	}
	return b[HeaderSize : HeaderSize+n], nil
}
