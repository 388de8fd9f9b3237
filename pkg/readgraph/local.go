package readgraph

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/tidwall/btree"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/store/alignments"
)

// ChimericPolicy decides what happens to chimeric reads met during traversal
// when chimeric reads are not allowed.
type ChimericPolicy int

const (
	// ChimericExclude never turns a chimeric read other than the seed into a vertex.
	ChimericExclude ChimericPolicy = iota
	// ChimericDeadEnd keeps chimeric reads as vertices but never expands them.
	ChimericDeadEnd
)

func (p ChimericPolicy) String() string {
	switch p {
	case ChimericExclude:
		return "exclude"
	case ChimericDeadEnd:
		return "dead-end"
	}
	return fmt.Sprintf("ChimericPolicy(%d)", int(p))
}

// ParseChimericPolicy accepts "exclude" and "dead-end".
func ParseChimericPolicy(s string) (ChimericPolicy, error) {
	switch s {
	case "", "exclude":
		return ChimericExclude, nil
	case "dead-end", "deadend":
		return ChimericDeadEnd, nil
	}
	return 0, fmt.Errorf("chimeric policy %q must be exclude or dead-end: %w", s, types.ErrInvalidArgument)
}

// Options control one extraction.
type Options struct {
	// MaxDistance is the BFS radius; 0 returns the seed alone.
	MaxDistance int
	// AllowChimericReads lets chimeric reads take part like any other read.
	AllowChimericReads bool
	// ChimericPolicy applies when AllowChimericReads is false.
	ChimericPolicy ChimericPolicy
	// MaxVertices fails the extraction with ErrLimitExceeded once the graph
	// would grow past it. 0 means no limit.
	MaxVertices int
}

// Vertex is an oriented read and its BFS distance from the seed.
type Vertex struct {
	types.OrientedReadID
	Distance uint32
}

// Edge is an alignment between two vertices of a local graph, A < B.
type Edge struct {
	A, B           types.OrientedReadID
	AlignmentIndex uint32
	Info           types.AlignmentInfo
}

// LocalReadGraph is the result of one extraction. It is owned by the caller
// and never shared between queries.
type LocalReadGraph struct {
	Seed        types.OrientedReadID
	MaxDistance int

	ordered  *btree.BTreeG[Vertex]
	distance map[types.OrientedReadID]uint32
	edges    []Edge
}

// vertexLess orders by distance, then read id, then strand.
func vertexLess(a, b Vertex) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.OrientedReadID < b.OrientedReadID
}

func newLocalReadGraph(seed types.OrientedReadID, maxDistance int) *LocalReadGraph {
	return &LocalReadGraph{
		Seed:        seed,
		MaxDistance: maxDistance,
		ordered:     btree.NewBTreeG[Vertex](vertexLess),
		distance:    make(map[types.OrientedReadID]uint32),
	}
}

func (g *LocalReadGraph) add(o types.OrientedReadID, d uint32) {
	g.distance[o] = d
	g.ordered.Set(Vertex{OrientedReadID: o, Distance: d})
}

// VertexCount is the number of oriented reads in the graph.
func (g *LocalReadGraph) VertexCount() int { return len(g.distance) }

// Contains reports whether o is a vertex.
func (g *LocalReadGraph) Contains(o types.OrientedReadID) bool {
	_, ok := g.distance[o]
	return ok
}

// Distance returns the BFS distance of o from the seed.
func (g *LocalReadGraph) Distance(o types.OrientedReadID) (uint32, bool) {
	d, ok := g.distance[o]
	return d, ok
}

// Scan visits vertices by ascending distance, read id and strand until fn returns false.
func (g *LocalReadGraph) Scan(fn func(Vertex) bool) {
	g.ordered.Scan(fn)
}

// Vertices returns all vertices in Scan order.
func (g *LocalReadGraph) Vertices() []Vertex {
	out := make([]Vertex, 0, g.VertexCount())
	g.Scan(func(v Vertex) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Edges returns the induced edges sorted by (A, B, AlignmentIndex).
func (g *LocalReadGraph) Edges() []Edge { return g.edges }

// Extractor runs bounded-radius searches over injected read and alignment sources.
type Extractor struct {
	reads  ReadSource
	aligns AlignmentSource
	index  *Index
}

// NewExtractor wires the extractor to its stores.
func NewExtractor(reads ReadSource, aligns AlignmentSource) *Extractor {
	return &Extractor{reads: reads, aligns: aligns, index: NewIndex(aligns)}
}

// Extract returns every oriented read within opts.MaxDistance hops of
// (readID, strand), with minimal hop counts, and the alignments among them.
//
// The seed is always a vertex, chimeric or not. ctx is checked once per
// expanded vertex.
func (x *Extractor) Extract(ctx context.Context, readID types.ReadID, strand types.Strand, opts Options) (*LocalReadGraph, error) {
	if err := strand.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxDistance < 0 {
		return nil, fmt.Errorf("max distance %d is negative: %w", opts.MaxDistance, types.ErrInvalidArgument)
	}
	if opts.MaxVertices < 0 {
		return nil, fmt.Errorf("max vertices %d is negative: %w", opts.MaxVertices, types.ErrInvalidArgument)
	}
	readCount := x.reads.ReadCount()
	if uint32(readID) >= readCount {
		return nil, fmt.Errorf("seed read %d (store has %d reads): %w", readID, readCount, types.ErrNotFound)
	}

	seed := types.NewOrientedReadID(readID, strand)
	g := newLocalReadGraph(seed, opts.MaxDistance)
	g.add(seed, 0)

	index := x.index.WithCache()
	visited := newBitSet(2 * readCount)
	visited.add(seed.Value())
	deadEnds := newBitSet(0)

	frontier := []types.OrientedReadID{seed}
	for d := 0; d < opts.MaxDistance && len(frontier) > 0; d++ {
		var next []types.OrientedReadID
		for _, v := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("extraction from %s stopped at distance %d: %w", seed, d, err)
			}
			if deadEnds.has(v.Value()) {
				continue
			}

			neighbors, err := index.Neighbors(v)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if visited.has(n.Value()) {
					continue
				}
				visited.add(n.Value())

				if !opts.AllowChimericReads {
					flags, err := x.reads.Flags(n.ReadID())
					if err != nil {
						return nil, err
					}
					if flags.IsChimeric {
						if opts.ChimericPolicy != ChimericDeadEnd {
							continue
						}
						deadEnds.add(n.Value())
					}
				}

				g.add(n, uint32(d+1))
				if opts.MaxVertices > 0 && g.VertexCount() > opts.MaxVertices {
					return nil, fmt.Errorf("local read graph of %s exceeds %d vertices: %w", seed, opts.MaxVertices, types.ErrLimitExceeded)
				}
				next = append(next, n)
			}
		}
		frontier = next
	}

	if err := x.induceEdges(g); err != nil {
		return nil, err
	}
	return g, nil
}

// induceEdges adds every alignment whose two oriented endpoints are both vertices.
// Each edge is found from its smaller endpoint only, and its Info is expressed
// from that endpoint.
func (x *Extractor) induceEdges(g *LocalReadGraph) error {
	var err error
	g.Scan(func(v Vertex) bool {
		var oas []alignments.OrientedAlignment
		oas, err = x.aligns.OrientedAlignments(v.OrientedReadID, x.reads)
		if err != nil {
			return false
		}
		for _, oa := range oas {
			if v.OrientedReadID < oa.Other && g.Contains(oa.Other) {
				g.edges = append(g.edges, Edge{A: v.OrientedReadID, B: oa.Other, AlignmentIndex: oa.Index, Info: oa.Info})
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	slices.SortFunc(g.edges, func(a, b Edge) int {
		if c := cmp.Compare(a.A, b.A); c != 0 {
			return c
		}
		if c := cmp.Compare(a.B, b.B); c != 0 {
			return c
		}
		return cmp.Compare(a.AlignmentIndex, b.AlignmentIndex)
	})
	return nil
}
