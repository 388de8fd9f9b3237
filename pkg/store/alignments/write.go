package alignments

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/persistence"
)

// WriteOptions controls Write.
type WriteOptions struct {
	// SkipTable leaves AlignmentTable.bin out; Open then rebuilds it in memory.
	SkipTable bool
}

// Write serializes already-computed alignments over readCount reads into dir.
func Write(dir string, readCount uint32, alignments []types.Alignment, opts WriteOptions) error {
	if uint64(len(alignments)) > uint64(^uint32(0))/4 {
		return fmt.Errorf("%d alignments overflow the table: %w", len(alignments), types.ErrInvalidArgument)
	}
	for i, a := range alignments {
		if err := a.Validate(readCount); err != nil {
			return fmt.Errorf("alignment %d: %w", i, err)
		}
	}
	count := uint32(len(alignments))

	if err := writeData(dir, readCount, alignments); err != nil {
		return err
	}
	if opts.SkipTable {
		return nil
	}

	offsets, table, err := buildTable(readCount, count, func(i uint32) types.Alignment { return alignments[i] })
	if err != nil {
		return err
	}
	w, err := persistence.Create(filepath.Join(dir, persistence.KindAlignmentTable.FileName()),
		persistence.Header{Kind: persistence.KindAlignmentTable, Count: 2 * uint64(readCount), Aux: uint64(len(table))})
	if err != nil {
		return err
	}
	defer w.Abort()
	for _, off := range offsets {
		if err := w.WriteUint64(off); err != nil {
			return err
		}
	}
	for _, i := range table {
		if err := w.WriteUint32(i); err != nil {
			return err
		}
	}
	return w.Commit()
}

func writeData(dir string, readCount uint32, alignments []types.Alignment) error {
	w, err := persistence.Create(filepath.Join(dir, persistence.KindAlignmentData.FileName()),
		persistence.Header{Kind: persistence.KindAlignmentData, Count: uint64(len(alignments)), Aux: uint64(readCount)})
	if err != nil {
		return err
	}
	defer w.Abort()

	rec := make([]byte, recordSize)
	for _, a := range alignments {
		var flags uint32
		if a.IsSameStrand {
			flags |= flagSameStrand
		}
		binary.LittleEndian.PutUint32(rec[0:4], uint32(a.ReadIDs[0]))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(a.ReadIDs[1]))
		binary.LittleEndian.PutUint32(rec[8:12], flags)
		binary.LittleEndian.PutUint32(rec[12:16], a.Info.MarkerCount)
		binary.LittleEndian.PutUint32(rec[16:20], uint32(a.Info.Offset))
		binary.LittleEndian.PutUint32(rec[20:24], a.Info.OverlapLength)
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Commit()
}
