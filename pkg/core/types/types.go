// Package types holds the value types shared by the read stores, the read graph
// and the exporter: read ids, strands, oriented reads and alignment records.
package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a read id is outside [0, ReadCount()).
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for a bad strand, a negative distance or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageUnavailable is returned when the read-only stores cannot be opened or mapped.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrLimitExceeded is returned when a query grows past a configured vertex cap.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// ReadID is the dense, zero-based identifier assigned to a read when the graph was built.
type ReadID uint32

// Strand is 0 for the read as stored and 1 for its reverse complement.
type Strand uint32

// Validate rejects anything other than 0 and 1.
func (s Strand) Validate() error {
	if s > 1 {
		return fmt.Errorf("strand %d must be 0 or 1: %w", s, ErrInvalidArgument)
	}
	return nil
}

// OrientedReadID packs a read id and a strand as 2*readId + strand.
// The packed value doubles as the row index of the alignment table.
type OrientedReadID uint32

// NewOrientedReadID builds the packed value. The strand must already be valid.
func NewOrientedReadID(readID ReadID, strand Strand) OrientedReadID {
	return OrientedReadID(uint32(readID)<<1 | uint32(strand&1))
}

// OrientedReadIDFromValue is the inverse of Value.
func OrientedReadIDFromValue(v uint32) OrientedReadID {
	return OrientedReadID(v)
}

func (o OrientedReadID) ReadID() ReadID { return ReadID(uint32(o) >> 1) }
func (o OrientedReadID) Strand() Strand { return Strand(uint32(o) & 1) }
func (o OrientedReadID) Value() uint32  { return uint32(o) }

// FlipStrand returns the same read on the opposite strand.
func (o OrientedReadID) FlipStrand() OrientedReadID {
	return o ^ 1
}

// WithRelativeStrand composes strands: the result is on strand s XOR relative.
func (o OrientedReadID) WithRelativeStrand(relative Strand) OrientedReadID {
	return o ^ OrientedReadID(relative&1)
}

// String renders "<readId>-<strand>".
func (o OrientedReadID) String() string {
	return fmt.Sprintf("%d-%d", o.ReadID(), o.Strand())
}

// ReadFlags are set upstream by the assembler and never mutated here.
type ReadFlags struct {
	IsChimeric    bool
	IsPalindromic bool
}

const (
	flagChimeric    uint8 = 1 << 0
	flagPalindromic uint8 = 1 << 1
)

// Encode packs the flags into the single byte stored per read.
func (f ReadFlags) Encode() uint8 {
	var b uint8
	if f.IsChimeric {
		b |= flagChimeric
	}
	if f.IsPalindromic {
		b |= flagPalindromic
	}
	return b
}

// DecodeReadFlags unpacks the stored flag byte.
func DecodeReadFlags(b uint8) ReadFlags {
	return ReadFlags{
		IsChimeric:    b&flagChimeric != 0,
		IsPalindromic: b&flagPalindromic != 0,
	}
}

// AlignmentInfo is the metadata carried by an alignment. Traversal does not look at it.
type AlignmentInfo struct {
	MarkerCount   uint32
	Offset        int32 // position of read 1 relative to read 0, in bases
	OverlapLength uint32
}

// Swap expresses the alignment from the point of view of the other read.
func (a AlignmentInfo) Swap() AlignmentInfo {
	a.Offset = -a.Offset
	return a
}

// ReverseComplement re-expresses the alignment after both reads are flipped.
// len0 and len1 are the lengths of the two reads.
func (a AlignmentInfo) ReverseComplement(len0, len1 uint32) AlignmentInfo {
	// On the flipped strands read 0 ends where read 1 used to start.
	a.Offset = int32(len0) - int32(len1) - a.Offset
	return a
}

// Alignment is one stored alignment between (ReadIDs[0], 0) and
// (ReadIDs[1], 0 if IsSameStrand else 1). The mirrored pair on the opposite
// strands is implied.
type Alignment struct {
	ReadIDs      [2]ReadID
	IsSameStrand bool
	Info         AlignmentInfo
}

// RelativeStrand is 0 when both reads align on the same strand, 1 otherwise.
func (a Alignment) RelativeStrand() Strand {
	if a.IsSameStrand {
		return 0
	}
	return 1
}

// Endpoints returns the two oriented reads the alignment connects, with read 0 on strand 0.
func (a Alignment) Endpoints() (OrientedReadID, OrientedReadID) {
	return NewOrientedReadID(a.ReadIDs[0], 0), NewOrientedReadID(a.ReadIDs[1], a.RelativeStrand())
}

// Other returns the oriented read aligned to o, or false if o's read is not an endpoint.
func (a Alignment) Other(o OrientedReadID) (OrientedReadID, bool) {
	e0, e1 := a.Endpoints()
	switch o.ReadID() {
	case a.ReadIDs[0]:
		return e1.WithRelativeStrand(o.Strand()), true
	case a.ReadIDs[1]:
		// e1 has strand RelativeStrand; bring o back to e1's frame first.
		return e0.WithRelativeStrand(o.Strand() ^ a.RelativeStrand()), true
	default:
		return 0, false
	}
}

// Validate rejects self-alignments and ids at or beyond readCount.
func (a Alignment) Validate(readCount uint32) error {
	if a.ReadIDs[0] == a.ReadIDs[1] {
		return fmt.Errorf("alignment of read %d with itself: %w", a.ReadIDs[0], ErrInvalidArgument)
	}
	for _, id := range a.ReadIDs {
		if uint32(id) >= readCount {
			return fmt.Errorf("alignment references read %d, only %d reads: %w", id, readCount, ErrNotFound)
		}
	}
	return nil
}
