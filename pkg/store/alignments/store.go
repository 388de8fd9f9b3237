// Package alignments is the read-only alignment store: the edges of the read
// graph plus a table listing, for every oriented read, the alignments it takes
// part in.
//
// The table has one section per oriented read, indexed by
// OrientedReadID.Value(), and each section is sorted by the oriented read on the
// other side of the alignment. Every alignment appears in four sections: both
// strands of both reads. Looking up a read is therefore O(degree).
package alignments

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/persistence"
	"github.com/sanonone/readgraph/pkg/storage/mmap"
)

// Record layout: readId0 u32 | readId1 u32 | flags u32 | markerCount u32 | offset i32 | overlap u32
const recordSize = 24

const flagSameStrand uint32 = 1 << 0

// Store serves alignments out of a data directory.
type Store struct {
	regions []*mmap.Region

	readCount      uint32
	alignmentCount uint32
	data           []byte

	tableOffsets []uint64 // 2*readCount+1
	table        []uint32
	builtInMem   bool
}

// OrientedAlignment is an alignment seen from one oriented read.
type OrientedAlignment struct {
	Other types.OrientedReadID
	Index uint32
	// Info is expressed with the querying read as read 0, on its own strand.
	Info types.AlignmentInfo
}

// Lengths supplies read lengths, needed to re-express alignment offsets on the
// opposite strand.
type Lengths interface {
	Length(types.ReadID) (uint32, error)
}

// Open maps AlignmentData.bin and AlignmentTable.bin. When the table file is
// missing it is rebuilt in memory from the alignment records.
func Open(dir string) (*Store, error) {
	s := &Store{}
	if err := s.open(dir); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) open(dir string) error {
	dr, err := mmap.Open(filepath.Join(dir, persistence.KindAlignmentData.FileName()))
	if err != nil {
		return err
	}
	s.regions = append(s.regions, dr)

	h, err := persistence.DecodeHeader(dr.Bytes(), persistence.KindAlignmentData)
	if err != nil {
		return corrupt(dr.Path(), err)
	}
	if h.Count > uint64(^uint32(0)) || h.Aux > uint64(^uint32(0)) {
		return corrupt(dr.Path(), fmt.Errorf("counts %d/%d overflow 32 bits", h.Count, h.Aux))
	}
	s.alignmentCount = uint32(h.Count)
	s.readCount = uint32(h.Aux)
	if s.data, err = persistence.Payload(dr.Bytes(), h.Count*recordSize); err != nil {
		return corrupt(dr.Path(), err)
	}

	tablePath := filepath.Join(dir, persistence.KindAlignmentTable.FileName())
	if _, err := os.Stat(tablePath); errors.Is(err, os.ErrNotExist) {
		start := time.Now()
		offsets, table, err := buildTable(s.readCount, s.alignmentCount, s.record)
		if err != nil {
			return corrupt(dr.Path(), err)
		}
		s.tableOffsets, s.table, s.builtInMem = offsets, table, true
		slog.Info("Alignment table not found, built in memory",
			"dir", dir, "alignments", s.alignmentCount, "elapsed", time.Since(start))
		return nil
	}

	tr, err := mmap.Open(tablePath)
	if err != nil {
		return err
	}
	s.regions = append(s.regions, tr)

	th, err := persistence.DecodeHeader(tr.Bytes(), persistence.KindAlignmentTable)
	if err != nil {
		return corrupt(tablePath, err)
	}
	rows := 2 * uint64(s.readCount)
	if th.Count != rows || th.Aux != 4*uint64(s.alignmentCount) {
		return corrupt(tablePath, fmt.Errorf("table has %d rows and %d entries, want %d and %d",
			th.Count, th.Aux, rows, 4*uint64(s.alignmentCount)))
	}
	offsetBytes := 8 * (rows + 1)
	payload, err := persistence.Payload(tr.Bytes(), offsetBytes+4*th.Aux)
	if err != nil {
		return corrupt(tablePath, err)
	}
	s.tableOffsets = mmap.BytesToUint64Slice(payload[:offsetBytes], int(rows+1))
	s.table = mmap.BytesToUint32Slice(payload[offsetBytes:], int(th.Aux))
	if s.tableOffsets[rows] != th.Aux {
		return corrupt(tablePath, fmt.Errorf("offset table ends at %d, want %d", s.tableOffsets[rows], th.Aux))
	}
	return nil
}

func corrupt(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, types.ErrStorageUnavailable, err)
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

// ReadCount is the number of reads the alignments were computed over.
func (s *Store) ReadCount() uint32 { return s.readCount }

// AlignmentCount is the number of stored alignments (undirected edges).
func (s *Store) AlignmentCount() uint32 { return s.alignmentCount }

// TableBuiltInMemory reports whether Open had to rebuild the alignment table.
func (s *Store) TableBuiltInMemory() bool { return s.builtInMem }

// record decodes alignment i without bounds checks on i.
func (s *Store) record(i uint32) types.Alignment {
	r := s.data[uint64(i)*recordSize : uint64(i+1)*recordSize]
	return types.Alignment{
		ReadIDs:      [2]types.ReadID{types.ReadID(binary.LittleEndian.Uint32(r[0:4])), types.ReadID(binary.LittleEndian.Uint32(r[4:8]))},
		IsSameStrand: binary.LittleEndian.Uint32(r[8:12])&flagSameStrand != 0,
		Info: types.AlignmentInfo{
			MarkerCount:   binary.LittleEndian.Uint32(r[12:16]),
			Offset:        int32(binary.LittleEndian.Uint32(r[16:20])),
			OverlapLength: binary.LittleEndian.Uint32(r[20:24]),
		},
	}
}

// Alignment returns stored alignment i.
func (s *Store) Alignment(i uint32) (types.Alignment, error) {
	if i >= s.alignmentCount {
		return types.Alignment{}, fmt.Errorf("alignment %d (store has %d): %w", i, s.alignmentCount, types.ErrNotFound)
	}
	a := s.record(i)
	if err := a.Validate(s.readCount); err != nil {
		return types.Alignment{}, fmt.Errorf("alignment %d: %w: %w", i, types.ErrStorageUnavailable, err)
	}
	return a, nil
}

// AlignmentIndexes returns the table section of an oriented read without copying.
// The slice must not be modified.
func (s *Store) AlignmentIndexes(o types.OrientedReadID) ([]uint32, error) {
	if err := o.Strand().Validate(); err != nil {
		return nil, err
	}
	if uint32(o.ReadID()) >= s.readCount {
		return nil, fmt.Errorf("read %d (store has %d reads): %w", o.ReadID(), s.readCount, types.ErrNotFound)
	}
	v := uint64(o.Value())
	begin, end := s.tableOffsets[v], s.tableOffsets[v+1]
	if begin > end || end > uint64(len(s.table)) {
		return nil, fmt.Errorf("table row %s spans [%d,%d): %w", o, begin, end, types.ErrStorageUnavailable)
	}
	return s.table[begin:end], nil
}

// NeighborsOf lists every alignment the read takes part in, as either endpoint.
// The strand-0 section holds each of them exactly once.
func (s *Store) NeighborsOf(id types.ReadID) ([]types.Alignment, error) {
	idx, err := s.AlignmentIndexes(types.NewOrientedReadID(id, 0))
	if err != nil {
		return nil, err
	}
	out := make([]types.Alignment, 0, len(idx))
	for _, i := range idx {
		a, err := s.Alignment(i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// OrientedAlignments returns the alignments of o with the other side expressed
// relative to o, in table order (ascending Other). When lengths is nil the Info
// is only swapped, never reverse complemented.
func (s *Store) OrientedAlignments(o types.OrientedReadID, lengths Lengths) ([]OrientedAlignment, error) {
	idx, err := s.AlignmentIndexes(o)
	if err != nil {
		return nil, err
	}
	out := make([]OrientedAlignment, 0, len(idx))
	for _, i := range idx {
		a, err := s.Alignment(i)
		if err != nil {
			return nil, err
		}
		other, ok := a.Other(o)
		if !ok {
			return nil, fmt.Errorf("table row %s lists alignment %d of reads %d,%d: %w",
				o, i, a.ReadIDs[0], a.ReadIDs[1], types.ErrStorageUnavailable)
		}

		info := a.Info
		storedStrand := types.Strand(0)
		if o.ReadID() != a.ReadIDs[0] {
			info = info.Swap()
			storedStrand = a.RelativeStrand()
		}
		if o.Strand() != storedStrand && lengths != nil {
			len0, err := lengths.Length(o.ReadID())
			if err != nil {
				return nil, err
			}
			len1, err := lengths.Length(other.ReadID())
			if err != nil {
				return nil, err
			}
			info = info.ReverseComplement(len0, len1)
		}
		out = append(out, OrientedAlignment{Other: other, Index: i, Info: info})
	}
	return out, nil
}
