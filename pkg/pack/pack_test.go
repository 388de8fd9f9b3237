package pack

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sanonone/readgraph/pkg/core/types"
	"github.com/sanonone/readgraph/pkg/store/alignments"
	"github.com/sanonone/readgraph/pkg/store/reads"
)

const testFasta = `>read_a first read
ACGTAC
GT
>read_b
ggccaa
>read_c
TTT
`

const testAlignments = `# readId0 readId1 sameStrand markerCount offset overlap
0	1	1	12	-40	900

1 2 0 7 15 300
`

func writeInputs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestPackRoundTrip(t *testing.T) {
	in := writeInputs(t, map[string]string{
		"reads.fa":    testFasta,
		"aln.tsv":     testAlignments,
		"chimeric":    "2\n",
		"palindromic": "# none yet\n0\n",
	})
	out := filepath.Join(t.TempDir(), "data")

	res, err := Pack(out, Inputs{
		Fasta:       filepath.Join(in, "reads.fa"),
		Alignments:  filepath.Join(in, "aln.tsv"),
		Chimeric:    filepath.Join(in, "chimeric"),
		Palindromic: filepath.Join(in, "palindromic"),
	})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	want := Result{Reads: 3, Bases: 17, Alignments: 2, Chimeric: 1, Palindromic: 1}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	rs, err := reads.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()
	if seq, _ := rs.Sequence(0); seq != "ACGTACGT" {
		t.Errorf("read 0 = %q", seq)
	}
	if seq, _ := rs.Sequence(1); seq != "GGCCAA" {
		t.Errorf("read 1 = %q", seq)
	}
	if name, _ := rs.Name(0); name != "read_a" {
		t.Errorf("name 0 = %q", name)
	}
	if f, _ := rs.Flags(2); !f.IsChimeric || f.IsPalindromic {
		t.Errorf("flags 2 = %+v", f)
	}
	if f, _ := rs.Flags(0); f.IsChimeric || !f.IsPalindromic {
		t.Errorf("flags 0 = %+v", f)
	}

	as, err := alignments.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer as.Close()
	a, err := as.Alignment(0)
	if err != nil {
		t.Fatal(err)
	}
	if a.ReadIDs != [2]types.ReadID{0, 1} || !a.IsSameStrand || a.Info.Offset != -40 || a.Info.OverlapLength != 900 {
		t.Errorf("alignment 0 = %+v", a)
	}
	if b, _ := as.Alignment(1); b.IsSameStrand {
		t.Errorf("alignment 1 = %+v", b)
	}
}

func TestReadAlignmentsRejectsBadLines(t *testing.T) {
	cases := map[string]string{
		"columns":    "0 1 1 5 0\n",
		"strand":     "0 1 2 5 0 10\n",
		"negative":   "0 -1 1 5 0 10\n",
		"not number": "0 x 1 5 0 10\n",
		"offset":     "0 1 1 5 3000000000 10\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadAlignments(strings.NewReader(body))
			if !errors.Is(err, types.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestPackRejectsInconsistentInputs(t *testing.T) {
	in := writeInputs(t, map[string]string{
		"reads.fa": testFasta,
		"aln.tsv":  "0 7 1 1 0 1\n",
		"good.tsv": testAlignments,
		"chimeric": "3\n",
	})

	_, err := Pack(t.TempDir(), Inputs{Fasta: filepath.Join(in, "reads.fa"), Alignments: filepath.Join(in, "aln.tsv")})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("alignment past the last read: %v", err)
	}

	_, err = Pack(t.TempDir(), Inputs{
		Fasta:      filepath.Join(in, "reads.fa"),
		Alignments: filepath.Join(in, "good.tsv"),
		Chimeric:   filepath.Join(in, "chimeric"),
	})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("chimeric id past the last read: %v", err)
	}

	_, err = Pack(t.TempDir(), Inputs{Fasta: filepath.Join(in, "missing.fa"), Alignments: filepath.Join(in, "good.tsv")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing FASTA: %v", err)
	}
}

func TestReadFASTARejectsUnknownBasesAtWrite(t *testing.T) {
	in := writeInputs(t, map[string]string{
		"reads.fa": ">r\nACNGT\n",
		"aln.tsv":  "",
	})
	_, err := Pack(t.TempDir(), Inputs{Fasta: filepath.Join(in, "reads.fa"), Alignments: filepath.Join(in, "aln.tsv")})
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
