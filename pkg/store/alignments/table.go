package alignments

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sanonone/readgraph/pkg/core/types"
)

// buildTable computes the per-oriented-read alignment table in two passes
// (count, then fill) and sorts every section by the other oriented read.
func buildTable(readCount, alignmentCount uint32, at func(uint32) types.Alignment) ([]uint64, []uint32, error) {
	rows := 2 * uint64(readCount)
	offsets := make([]uint64, rows+1)

	// Pass 1: count.
	for i := uint32(0); i < alignmentCount; i++ {
		a := at(i)
		if err := a.Validate(readCount); err != nil {
			return nil, nil, fmt.Errorf("alignment %d: %w", i, err)
		}
		for _, o := range tableRows(a) {
			offsets[o.Value()+1]++
		}
	}
	for r := uint64(1); r <= rows; r++ {
		offsets[r] += offsets[r-1]
	}

	// Pass 2: fill.
	table := make([]uint32, offsets[rows])
	cursor := slices.Clone(offsets[:rows])
	for i := uint32(0); i < alignmentCount; i++ {
		for _, o := range tableRows(at(i)) {
			table[cursor[o.Value()]] = i
			cursor[o.Value()]++
		}
	}

	// Sort each section by the oriented read on the other side.
	type entry struct {
		other types.OrientedReadID
		index uint32
	}
	var buf []entry
	for r := uint64(0); r < rows; r++ {
		o := types.OrientedReadIDFromValue(uint32(r))
		section := table[offsets[r]:offsets[r+1]]
		buf = buf[:0]
		for _, i := range section {
			other, _ := at(i).Other(o)
			buf = append(buf, entry{other: other, index: i})
		}
		slices.SortFunc(buf, func(x, y entry) int {
			if c := cmp.Compare(x.other, y.other); c != 0 {
				return c
			}
			return cmp.Compare(x.index, y.index)
		})
		for k := range buf {
			section[k] = buf[k].index
		}
	}
	return offsets, table, nil
}

// tableRows lists the four oriented reads whose sections contain alignment a.
func tableRows(a types.Alignment) [4]types.OrientedReadID {
	e0, e1 := a.Endpoints()
	return [4]types.OrientedReadID{e0, e1, e0.FlipStrand(), e1.FlipStrand()}
}
