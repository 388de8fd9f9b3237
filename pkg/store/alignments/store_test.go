package alignments

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/persistence"
)

// Five reads. 0-1 same strand, 1-2 opposite strands, 2-3 same strand, 0-3 opposite.
var testAlignments = []types.Alignment{
	{ReadIDs: [2]types.ReadID{0, 1}, IsSameStrand: true, Info: types.AlignmentInfo{MarkerCount: 10, Offset: 100, OverlapLength: 400}},
	{ReadIDs: [2]types.ReadID{1, 2}, IsSameStrand: false, Info: types.AlignmentInfo{MarkerCount: 8, Offset: -50, OverlapLength: 300}},
	{ReadIDs: [2]types.ReadID{3, 2}, IsSameStrand: true, Info: types.AlignmentInfo{MarkerCount: 5, Offset: 20, OverlapLength: 200}},
	{ReadIDs: [2]types.ReadID{0, 3}, IsSameStrand: false, Info: types.AlignmentInfo{MarkerCount: 7, Offset: 5, OverlapLength: 100}},
}

const testReadCount = 5

type fixedLengths map[types.ReadID]uint32

func (f fixedLengths) Length(id types.ReadID) (uint32, error) { return f[id], nil }

func openTestStore(t *testing.T, opts WriteOptions) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	if err := Write(dir, testReadCount, testAlignments, opts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestNeighborsOf(t *testing.T) {
	s, _ := openTestStore(t, WriteOptions{})

	if s.AlignmentCount() != 4 || s.ReadCount() != testReadCount {
		t.Fatalf("counts = %d, %d", s.AlignmentCount(), s.ReadCount())
	}

	want := map[types.ReadID][]types.Alignment{
		0: {testAlignments[0], testAlignments[3]},
		1: {testAlignments[0], testAlignments[1]},
		2: {testAlignments[1], testAlignments[2]},
		3: {testAlignments[2], testAlignments[3]},
		4: {},
	}
	for id, w := range want {
		got, err := s.NeighborsOf(id)
		if err != nil {
			t.Fatalf("NeighborsOf(%d): %v", id, err)
		}
		if len(got) != len(w) {
			t.Fatalf("NeighborsOf(%d) = %d alignments, want %d", id, len(got), len(w))
		}
		for _, a := range w {
			if !slices.Contains(got, a) {
				t.Errorf("NeighborsOf(%d) is missing %+v", id, a)
			}
		}
	}
}

func TestNeighborsOfInvalidRead(t *testing.T) {
	s, _ := openTestStore(t, WriteOptions{})
	if _, err := s.NeighborsOf(testReadCount); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.AlignmentIndexes(types.NewOrientedReadID(7, 0)); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrientedAlignmentsAreSortedAndSymmetric(t *testing.T) {
	s, _ := openTestStore(t, WriteOptions{})

	for id := types.ReadID(0); id < testReadCount; id++ {
		for strand := types.Strand(0); strand < 2; strand++ {
			o := types.NewOrientedReadID(id, strand)
			oas, err := s.OrientedAlignments(o, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.IsSortedFunc(oas, func(x, y OrientedAlignment) int { return int(x.Other) - int(y.Other) }) {
				t.Errorf("section %s is not sorted: %+v", o, oas)
			}
			for _, oa := range oas {
				back, err := s.OrientedAlignments(oa.Other, nil)
				if err != nil {
					t.Fatal(err)
				}
				found := false
				for _, b := range back {
					if b.Other == o && b.Index == oa.Index {
						found = true
					}
				}
				if !found {
					t.Errorf("edge %s -> %s (alignment %d) has no mirror", o, oa.Other, oa.Index)
				}
			}
		}
	}

	// 1-2 is an opposite-strand alignment: (1,0) sees (2,1).
	oas, _ := s.OrientedAlignments(types.NewOrientedReadID(1, 0), nil)
	others := []types.OrientedReadID{oas[0].Other, oas[1].Other}
	want := []types.OrientedReadID{types.NewOrientedReadID(0, 0), types.NewOrientedReadID(2, 1)}
	if !slices.Equal(others, want) {
		t.Errorf("neighbors of 1-0 = %v, want %v", others, want)
	}
}

func TestOrientedAlignmentInfo(t *testing.T) {
	s, _ := openTestStore(t, WriteOptions{})
	lengths := fixedLengths{0: 1000, 1: 900}

	// Seen from read 1, strand 0: swapped.
	oas, err := s.OrientedAlignments(types.NewOrientedReadID(1, 0), lengths)
	if err != nil {
		t.Fatal(err)
	}
	if oas[0].Info.Offset != -100 {
		t.Errorf("swapped offset = %d, want -100", oas[0].Info.Offset)
	}

	// Seen from read 0, strand 1: reverse complemented with lengths (1000, 900).
	oas, err = s.OrientedAlignments(types.NewOrientedReadID(0, 1), lengths)
	if err != nil {
		t.Fatal(err)
	}
	for _, oa := range oas {
		if oa.Index == 0 && oa.Info.Offset != 1000-900-100 {
			t.Errorf("reverse complemented offset = %d", oa.Info.Offset)
		}
	}
}

func TestMissingTableIsBuiltInMemory(t *testing.T) {
	persisted, _ := openTestStore(t, WriteOptions{})
	inMem, dir := openTestStore(t, WriteOptions{SkipTable: true})

	if _, err := os.Stat(filepath.Join(dir, persistence.KindAlignmentTable.FileName())); !os.IsNotExist(err) {
		t.Fatal("table file should not exist")
	}
	if persisted.TableBuiltInMemory() || !inMem.TableBuiltInMemory() {
		t.Fatal("TableBuiltInMemory reports the wrong source")
	}

	for v := uint32(0); v < 2*testReadCount; v++ {
		o := types.OrientedReadIDFromValue(v)
		a, err := persisted.AlignmentIndexes(o)
		if err != nil {
			t.Fatal(err)
		}
		b, err := inMem.AlignmentIndexes(o)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(a, b) {
			t.Errorf("row %s: persisted %v, in memory %v", o, a, b)
		}
	}
}

func TestWriteValidates(t *testing.T) {
	bad := []types.Alignment{{ReadIDs: [2]types.ReadID{0, 9}}}
	if err := Write(t.TempDir(), testReadCount, bad, WriteOptions{}); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	self := []types.Alignment{{ReadIDs: [2]types.ReadID{2, 2}}}
	if err := Write(t.TempDir(), testReadCount, self, WriteOptions{}); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestOpenCorruptTable(t *testing.T) {
	_, dir := openTestStore(t, WriteOptions{})
	path := filepath.Join(dir, persistence.KindAlignmentTable.FileName())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-4], 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir); !errors.Is(err, types.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}
