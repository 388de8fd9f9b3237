package reads

import (
	"fmt"
	"path/filepath"

	"github.com/sanonone/readgraph/pkg/core/bases"
	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/persistence"
)

// Record is one read as handed to Write. Record i gets read id i.
type Record struct {
	Name     string
	Sequence string
	Flags    types.ReadFlags
}

// Write serializes records into dir in the layout Open expects.
// It only lays out data that already exists; nothing is computed.
func Write(dir string, records []Record) error {
	if uint64(len(records)) > uint64(^uint32(0)) {
		return fmt.Errorf("%d reads do not fit in 32-bit read ids: %w", len(records), types.ErrInvalidArgument)
	}
	if err := writeSequences(dir, records); err != nil {
		return err
	}
	if err := writeFlags(dir, records); err != nil {
		return err
	}
	return writeNames(dir, records)
}

func writeSequences(dir string, records []Record) error {
	var total uint64
	for _, r := range records {
		total += uint64(len(r.Sequence))
	}

	w, err := persistence.Create(filepath.Join(dir, persistence.KindReadSequences.FileName()),
		persistence.Header{Kind: persistence.KindReadSequences, Count: uint64(len(records)), Aux: total})
	if err != nil {
		return err
	}
	defer w.Abort()

	var offset uint64
	for _, r := range records {
		if err := w.WriteUint64(offset); err != nil {
			return err
		}
		offset += uint64(len(r.Sequence))
	}
	if err := w.WriteUint64(offset); err != nil {
		return err
	}

	// Reads are packed back to back, so a read may start in the middle of a byte.
	var cur byte
	var pos uint64
	for i, r := range records {
		for j := 0; j < len(r.Sequence); j++ {
			b, err := bases.FromChar(r.Sequence[j])
			if err != nil {
				return fmt.Errorf("read %d position %d: %w", i, j, err)
			}
			cur |= byte(b) << ((pos & 3) << 1)
			pos++
			if pos&3 == 0 {
				if _, err := w.Write([]byte{cur}); err != nil {
					return err
				}
				cur = 0
			}
		}
	}
	if pos&3 != 0 {
		if _, err := w.Write([]byte{cur}); err != nil {
			return err
		}
	}
	return w.Commit()
}

func writeFlags(dir string, records []Record) error {
	w, err := persistence.Create(filepath.Join(dir, persistence.KindReadFlags.FileName()),
		persistence.Header{Kind: persistence.KindReadFlags, Count: uint64(len(records))})
	if err != nil {
		return err
	}
	defer w.Abort()

	flags := make([]byte, len(records))
	for i, r := range records {
		flags[i] = r.Flags.Encode()
	}
	if _, err := w.Write(flags); err != nil {
		return err
	}
	return w.Commit()
}

func writeNames(dir string, records []Record) error {
	var total uint64
	for _, r := range records {
		total += uint64(len(r.Name))
	}

	w, err := persistence.Create(filepath.Join(dir, persistence.KindReadNames.FileName()),
		persistence.Header{Kind: persistence.KindReadNames, Count: uint64(len(records)), Aux: total})
	if err != nil {
		return err
	}
	defer w.Abort()

	var offset uint64
	for _, r := range records {
		if err := w.WriteUint64(offset); err != nil {
			return err
		}
		offset += uint64(len(r.Name))
	}
	if err := w.WriteUint64(offset); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := w.Write([]byte(r.Name)); err != nil {
			return err
		}
	}
	return w.Commit()
}
