// Package reads is the read-only sequence store: packed read sequences, their
// lengths, flags and names, indexed by dense read id.
//
// All three files are memory-mapped; a read costs a couple of page faults the
// first time it is touched and nothing is loaded eagerly. A Store is immutable
// once opened and is safe for concurrent use without locking.
package reads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanonone/readgraph/pkg/core/bases"
	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/persistence"
	"github.com/sanonone/readgraph/pkg/storage/mmap"
)

// Store serves reads out of a data directory.
type Store struct {
	regions []*mmap.Region

	readCount  uint32
	totalBases uint64

	baseOffsets []uint64 // readCount+1 prefix sums of lengths
	packed      []byte   // 2-bit bases, reads back to back
	flags       []byte   // one byte per read

	nameOffsets []uint64 // readCount+1, nil when the names file is absent
	names       []byte
}

// Stats summarizes a store.
type Stats struct {
	ReadCount        uint32
	TotalBases       uint64
	ChimericCount    uint32
	PalindromicCount uint32
}

// Open maps ReadSequences.bin, ReadFlags.bin and, if present, ReadNames.bin.
func Open(dir string) (*Store, error) {
	s := &Store{}
	if err := s.open(dir); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) open(dir string) error {
	// Sequences.
	seq, h, err := s.mapFile(dir, persistence.KindReadSequences)
	if err != nil {
		return err
	}
	if h.Count > uint64(^uint32(0)) {
		return corrupt(seq, fmt.Errorf("read count %d overflows a read id", h.Count))
	}
	s.readCount = uint32(h.Count)
	s.totalBases = h.Aux

	offsetBytes := 8 * (h.Count + 1)
	payload, err := persistence.Payload(seq.Bytes(), offsetBytes+bases.PackedLen(h.Aux))
	if err != nil {
		return corrupt(seq, err)
	}
	s.baseOffsets = mmap.BytesToUint64Slice(payload[:offsetBytes], int(h.Count+1))
	s.packed = payload[offsetBytes:]
	if s.baseOffsets[h.Count] != s.totalBases {
		return corrupt(seq, fmt.Errorf("offset table ends at %d, header says %d bases", s.baseOffsets[h.Count], s.totalBases))
	}

	// Flags.
	fl, h, err := s.mapFile(dir, persistence.KindReadFlags)
	if err != nil {
		return err
	}
	if h.Count != uint64(s.readCount) {
		return corrupt(fl, fmt.Errorf("%d flags for %d reads", h.Count, s.readCount))
	}
	if s.flags, err = persistence.Payload(fl.Bytes(), h.Count); err != nil {
		return corrupt(fl, err)
	}

	// Names are optional.
	if _, err := os.Stat(filepath.Join(dir, persistence.KindReadNames.FileName())); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	nm, h, err := s.mapFile(dir, persistence.KindReadNames)
	if err != nil {
		return err
	}
	if h.Count != uint64(s.readCount) {
		return corrupt(nm, fmt.Errorf("%d names for %d reads", h.Count, s.readCount))
	}
	offsetBytes = 8 * (h.Count + 1)
	payload, err = persistence.Payload(nm.Bytes(), offsetBytes+h.Aux)
	if err != nil {
		return corrupt(nm, err)
	}
	s.nameOffsets = mmap.BytesToUint64Slice(payload[:offsetBytes], int(h.Count+1))
	s.names = payload[offsetBytes:]
	return nil
}

func (s *Store) mapFile(dir string, kind persistence.Kind) (*mmap.Region, persistence.Header, error) {
	r, err := mmap.Open(filepath.Join(dir, kind.FileName()))
	if err != nil {
		return nil, persistence.Header{}, err
	}
	s.regions = append(s.regions, r)
	h, err := persistence.DecodeHeader(r.Bytes(), kind)
	if err != nil {
		return nil, persistence.Header{}, corrupt(r, err)
	}
	return r, h, nil
}

func corrupt(r *mmap.Region, err error) error {
	return fmt.Errorf("%s: %w: %w", r.Path(), types.ErrStorageUnavailable, err)
}

// Close unmaps every file. The store must not be used afterwards.
func (s *Store) Close() error {
	var errs []error
	for _, r := range s.regions {
		errs = append(errs, r.Close())
	}
	s.regions = nil
	return errors.Join(errs...)
}

// ReadCount is the number of reads; valid ids are [0, ReadCount()).
func (s *Store) ReadCount() uint32 { return s.readCount }

func (s *Store) check(id types.ReadID) error {
	if uint32(id) >= s.readCount {
		return fmt.Errorf("read %d (store has %d reads): %w", id, s.readCount, types.ErrNotFound)
	}
	return nil
}

// span returns the base range of a read, guarding against a damaged offset table.
func (s *Store) span(id types.ReadID) (uint64, uint64, error) {
	if err := s.check(id); err != nil {
		return 0, 0, err
	}
	begin, end := s.baseOffsets[id], s.baseOffsets[id+1]
	if begin > end || end > s.totalBases {
		return 0, 0, fmt.Errorf("read %d has bases [%d,%d) of %d: %w", id, begin, end, s.totalBases, types.ErrStorageUnavailable)
	}
	return begin, end - begin, nil
}

// Length is the number of bases in a read.
func (s *Store) Length(id types.ReadID) (uint32, error) {
	_, n, err := s.span(id)
	return uint32(n), err
}

// Flags returns the flags set upstream for a read.
func (s *Store) Flags(id types.ReadID) (types.ReadFlags, error) {
	if err := s.check(id); err != nil {
		return types.ReadFlags{}, err
	}
	return types.DecodeReadFlags(s.flags[id]), nil
}

// IsChimeric is a shortcut for Flags(id).IsChimeric.
func (s *Store) IsChimeric(id types.ReadID) (bool, error) {
	f, err := s.Flags(id)
	return f.IsChimeric, err
}

// Name returns the read name, or "" when the store has no names.
func (s *Store) Name(id types.ReadID) (string, error) {
	if err := s.check(id); err != nil {
		return "", err
	}
	if s.nameOffsets == nil {
		return "", nil
	}
	begin, end := s.nameOffsets[id], s.nameOffsets[id+1]
	if begin > end || end > uint64(len(s.names)) {
		return "", fmt.Errorf("read %d name bytes [%d,%d): %w", id, begin, end, types.ErrStorageUnavailable)
	}
	return string(s.names[begin:end]), nil
}

// Sequence returns the stored (strand 0) sequence of a read.
func (s *Store) Sequence(id types.ReadID) (string, error) {
	b, err := s.AppendSequence(nil, types.NewOrientedReadID(id, 0))
	return string(b), err
}

// OrientedSequence returns the sequence of an oriented read; strand 1 is the
// reverse complement of the stored sequence.
func (s *Store) OrientedSequence(o types.OrientedReadID) (string, error) {
	b, err := s.AppendSequence(nil, o)
	return string(b), err
}

// AppendSequence appends the oriented sequence to dst as ACGT letters.
func (s *Store) AppendSequence(dst []byte, o types.OrientedReadID) ([]byte, error) {
	begin, n, err := s.span(o.ReadID())
	if err != nil {
		return dst, err
	}
	if o.Strand() == 0 {
		return bases.AppendPacked(dst, s.packed, begin, n), nil
	}
	return bases.AppendPackedReverseComplement(dst, s.packed, begin, n), nil
}

// Stats scans the flags; it touches one byte per read.
func (s *Store) Stats() Stats {
	st := Stats{ReadCount: s.readCount, TotalBases: s.totalBases}
	for _, b := range s.flags {
		f := types.DecodeReadFlags(b)
		if f.IsChimeric {
			st.ChimericCount++
		}
		if f.IsPalindromic {
			st.PalindromicCount++
		}
	}
	return st
}
