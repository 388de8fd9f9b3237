// Package pack turns plain-text inputs into a readgraph data directory.
//
// It only serializes what it is given: reads from FASTA, alignments from a
// tab-separated file and read flags from id lists. Nothing is computed.
package pack

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/fasta"
	"github.com/sanonone/readgraph/pkg/store/alignments"
	"github.com/sanonone/readgraph/pkg/store/reads"
)

// Inputs names the source files. Chimeric and Palindromic are optional.
type Inputs struct {
	Fasta       string
	Alignments  string
	Chimeric    string
	Palindromic string
}

// Result counts what was written.
type Result struct {
	Reads       int
	Bases       int64
	Alignments  int
	Chimeric    int
	Palindromic int
}

// Pack reads in and writes the stores into dir. Read ids are assigned in
// FASTA order starting at 0.
func Pack(dir string, in Inputs) (Result, error) {
	var res Result

	recs, err := readFile(in.Fasta, ReadFASTA)
	if err != nil {
		return res, err
	}
	res.Reads = len(recs)
	for _, r := range recs {
		res.Bases += int64(len(r.Sequence))
	}

	aligns, err := readFile(in.Alignments, ReadAlignments)
	if err != nil {
		return res, err
	}
	res.Alignments = len(aligns)

	if in.Chimeric != "" {
		ids, err := readFile(in.Chimeric, ReadIDList)
		if err != nil {
			return res, err
		}
		if res.Chimeric, err = setFlag(recs, ids, func(f *types.ReadFlags) { f.IsChimeric = true }); err != nil {
			return res, fmt.Errorf("%s: %w", in.Chimeric, err)
		}
	}
	if in.Palindromic != "" {
		ids, err := readFile(in.Palindromic, ReadIDList)
		if err != nil {
			return res, err
		}
		if res.Palindromic, err = setFlag(recs, ids, func(f *types.ReadFlags) { f.IsPalindromic = true }); err != nil {
			return res, fmt.Errorf("%s: %w", in.Palindromic, err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := reads.Write(dir, recs); err != nil {
		return res, err
	}
	if err := alignments.Write(dir, uint32(len(recs)), aligns, alignments.WriteOptions{}); err != nil {
		return res, err
	}

	slog.Info("Data directory packed",
		"dir", dir,
		"reads", res.Reads,
		"bases", res.Bases,
		"alignments", res.Alignments,
		"chimeric", res.Chimeric,
		"palindromic", res.Palindromic)
	return res, nil
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	v, err := parse(f)
	if err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func setFlag(recs []reads.Record, ids []types.ReadID, set func(*types.ReadFlags)) (int, error) {
	n := 0
	for _, id := range ids {
		if int(id) >= len(recs) {
			return n, fmt.Errorf("read %d (FASTA has %d reads): %w", id, len(recs), types.ErrNotFound)
		}
		set(&recs[id].Flags)
		n++
	}
	return n, nil
}

// ReadFASTA collects records in file order. Sequences are upper-cased; the
// record id becomes the read name.
func ReadFASTA(r io.Reader) ([]reads.Record, error) {
	fr := fasta.NewReader(r)
	var out []reads.Record
	for {
		rec, err := fr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, reads.Record{Name: rec.ID, Sequence: strings.ToUpper(string(rec.Seq))})
	}
}

// ReadAlignments parses lines of
//
//	readId0 readId1 sameStrand markerCount offset overlap
//
// separated by tabs or spaces. Blank lines and lines starting with '#' are skipped.
func ReadAlignments(r io.Reader) ([]types.Alignment, error) {
	var out []types.Alignment
	err := scanLines(r, func(line int, fields []string) error {
		if len(fields) != 6 {
			return fmt.Errorf("line %d: %d columns, want 6: %w", line, len(fields), types.ErrInvalidArgument)
		}
		var v [6]int64
		for i, f := range fields {
			n, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return fmt.Errorf("line %d column %d: %w: %w", line, i+1, types.ErrInvalidArgument, err)
			}
			v[i] = n
		}
		for _, i := range []int{0, 1, 3, 5} {
			if v[i] < 0 || v[i] > int64(^uint32(0)) {
				return fmt.Errorf("line %d column %d: %d out of range: %w", line, i+1, v[i], types.ErrInvalidArgument)
			}
		}
		if v[2] != 0 && v[2] != 1 {
			return fmt.Errorf("line %d: sameStrand must be 0 or 1: %w", line, types.ErrInvalidArgument)
		}
		if v[4] < -1<<31 || v[4] > 1<<31-1 {
			return fmt.Errorf("line %d: offset %d out of range: %w", line, v[4], types.ErrInvalidArgument)
		}
		out = append(out, types.Alignment{
			ReadIDs:      [2]types.ReadID{types.ReadID(v[0]), types.ReadID(v[1])},
			IsSameStrand: v[2] == 1,
			Info: types.AlignmentInfo{
				MarkerCount:   uint32(v[3]),
				Offset:        int32(v[4]),
				OverlapLength: uint32(v[5]),
			},
		})
		return nil
	})
	return out, err
}

// ReadIDList parses one read id per line.
func ReadIDList(r io.Reader) ([]types.ReadID, error) {
	var out []types.ReadID
	err := scanLines(r, func(line int, fields []string) error {
		if len(fields) != 1 {
			return fmt.Errorf("line %d: want one read id: %w", line, types.ErrInvalidArgument)
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: %w: %w", line, types.ErrInvalidArgument, err)
		}
		out = append(out, types.ReadID(id))
		return nil
	})
	return out, err
}

func scanLines(r io.Reader, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := fn(line, strings.Fields(text)); err != nil {
			return err
		}
	}
	return sc.Err()
}
