// Package readgraph answers read-graph queries over the read-only stores:
// neighbor lookup for oriented reads, bounded-radius local graph extraction
// and FASTA export of the extracted reads.
package readgraph

import (
	"slices"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/store/alignments"
)

// AlignmentSource is what the read graph needs from the alignment store.
type AlignmentSource interface {
	ReadCount() uint32
	OrientedAlignments(o types.OrientedReadID, lengths alignments.Lengths) ([]alignments.OrientedAlignment, error)
}

// ReadSource is what extraction and export need from the sequence store.
type ReadSource interface {
	ReadCount() uint32
	Flags(id types.ReadID) (types.ReadFlags, error)
	Length(id types.ReadID) (uint32, error)
	Name(id types.ReadID) (string, error)
	AppendSequence(dst []byte, o types.OrientedReadID) ([]byte, error)
}

// Index projects alignments onto oriented-read adjacency. It stores nothing of
// its own: the neighbor of o through an alignment is the other read on strand
// RelativeStrand XOR o.Strand().
type Index struct {
	src   AlignmentSource
	cache map[types.OrientedReadID][]types.OrientedReadID
}

// NewIndex wraps an alignment source.
func NewIndex(src AlignmentSource) *Index {
	return &Index{src: src}
}

// WithCache returns an Index that remembers neighbor lists. It is meant to live
// for a single traversal and is not safe for concurrent use.
func (ix *Index) WithCache() *Index {
	return &Index{src: ix.src, cache: make(map[types.OrientedReadID][]types.OrientedReadID)}
}

// Neighbors returns the distinct neighbors of o in ascending (readId, strand) order.
func (ix *Index) Neighbors(o types.OrientedReadID) ([]types.OrientedReadID, error) {
	if ix.cache != nil {
		if n, ok := ix.cache[o]; ok {
			return n, nil
		}
	}

	oas, err := ix.src.OrientedAlignments(o, nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.OrientedReadID, 0, len(oas))
	for _, oa := range oas {
		out = append(out, oa.Other)
	}
	// Table sections are already sorted; sorting again keeps the order stable
	// against a table written by another tool.
	slices.Sort(out)
	out = slices.Compact(out)

	if ix.cache != nil {
		ix.cache[o] = out
	}
	return out, nil
}
