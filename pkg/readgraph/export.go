package readgraph

import (
	"fmt"
	"io"

	"github.com/sanonone/readgraph/pkg/fasta"
)

// ExportOptions control FASTA export.
type ExportOptions struct {
	// LineWidth wraps sequences; 0 keeps each on one line.
	LineWidth int
}

// ExportStats describes what Export wrote.
type ExportStats struct {
	Records int
	Bases   int64
}

// Record builds the FASTA record of one vertex. The id is "<readId>-<strand>";
// the description carries the distance, the length and, when known, the read name.
// Strand 1 vertices get the reverse complement of the stored sequence.
func Record(reads ReadSource, v Vertex) (fasta.Record, error) {
	id := v.ReadID()
	length, err := reads.Length(id)
	if err != nil {
		return fasta.Record{}, err
	}
	name, err := reads.Name(id)
	if err != nil {
		return fasta.Record{}, err
	}
	seq, err := reads.AppendSequence(make([]byte, 0, length), v.OrientedReadID)
	if err != nil {
		return fasta.Record{}, err
	}

	desc := fmt.Sprintf("distance=%d length=%d", v.Distance, length)
	if name != "" {
		desc += " name=" + name
	}
	return fasta.Record{ID: v.OrientedReadID.String(), Description: desc, Seq: seq}, nil
}

// Records returns one record per vertex, ordered by distance, read id and strand.
func Records(g *LocalReadGraph, reads ReadSource) ([]fasta.Record, error) {
	out := make([]fasta.Record, 0, g.VertexCount())
	var err error
	g.Scan(func(v Vertex) bool {
		var rec fasta.Record
		if rec, err = Record(reads, v); err != nil {
			return false
		}
		out = append(out, rec)
		return true
	})
	return out, err
}

// Export streams the records of g to w as FASTA.
func Export(w io.Writer, g *LocalReadGraph, reads ReadSource, opts ExportOptions) (ExportStats, error) {
	fw := fasta.NewWriter(w, opts.LineWidth)
	var err error
	g.Scan(func(v Vertex) bool {
		var rec fasta.Record
		if rec, err = Record(reads, v); err != nil {
			return false
		}
		err = fw.Write(rec)
		return err == nil
	})
	if err != nil {
		return ExportStats{}, fmt.Errorf("export of local read graph around %s: %w", g.Seed, err)
	}
	if err := fw.Flush(); err != nil {
		return ExportStats{}, err
	}
	return ExportStats{Records: fw.Records(), Bases: fw.Bases()}, nil
}
