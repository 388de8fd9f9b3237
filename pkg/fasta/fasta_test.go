package fasta

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWriterSingleLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	if err := w.Write(Record{ID: "0-0", Description: "distance=0", Seq: []byte("GATTACA")}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Record{ID: "1-1", Seq: []byte("CC")}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	want := ">0-0 distance=0\nGATTACA\n>1-1\nCC\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
	if w.Records() != 2 || w.Bases() != 9 {
		t.Errorf("Records=%d Bases=%d", w.Records(), w.Bases())
	}
}

func TestWriterWrapsLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 3)
	if err := w.Write(Record{ID: "r", Seq: []byte("ACGTACG")}); err != nil {
		t.Fatal(err)
	}
	w.Flush()
	if want := ">r\nACG\nTAC\nG\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriterRejectsBadHeaders(t *testing.T) {
	w := NewWriter(io.Discard, 0)
	if err := w.Write(Record{ID: "has space"}); err == nil {
		t.Error("id with a space accepted")
	}
	if err := w.Write(Record{ID: ""}); err == nil {
		t.Error("empty id accepted")
	}
	if err := w.Write(Record{ID: "x", Description: "a\nb"}); err == nil {
		t.Error("multi-line description accepted")
	}
}

func TestReaderParsesWrappedRecords(t *testing.T) {
	in := "\n>read_a first read\nACGT\nAC\n\n>read_b\n>read_c  spaced  \nGG\n"
	r := NewReader(strings.NewReader(in))

	want := []Record{
		{ID: "read_a", Description: "first read", Seq: []byte("ACGTAC")},
		{ID: "read_b", Seq: []byte{}},
		{ID: "read_c", Description: "spaced", Seq: []byte("GG")},
	}
	for i, w := range want {
		got, err := r.Read()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.ID != w.ID || got.Description != w.Description || !bytes.Equal(got.Seq, w.Seq) {
			t.Errorf("record %d = %+v, want %+v", i, got, w)
		}
	}
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderRejectsSequenceBeforeHeader(t *testing.T) {
	r := NewReader(strings.NewReader("ACGT\n>x\nA\n"))
	if _, err := r.Read(); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestWriteThenRead(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 4)
	recs := []Record{
		{ID: "12-0", Description: "distance=0 length=9", Seq: []byte("ACGTTGCAA")},
		{ID: "7-1", Description: "distance=1 length=4", Seq: []byte("TTTT")},
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	w.Flush()

	r := NewReader(&buf)
	for _, want := range recs {
		got, err := r.Read()
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != want.ID || got.Description != want.Description || !bytes.Equal(got.Seq, want.Seq) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}
}
