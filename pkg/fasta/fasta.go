// Package fasta reads and writes FASTA: a ">" header line holding an id and an
// optional description, followed by the sequence on one or more lines.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Record is one FASTA entry.
type Record struct {
	ID          string
	Description string
	Seq         []byte
}

// Writer emits records. LineWidth 0 writes each sequence on a single line.
type Writer struct {
	w         *bufio.Writer
	lineWidth int
	records   int
	bases     int64
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer, lineWidth int) *Writer {
	if lineWidth < 0 {
		lineWidth = 0
	}
	return &Writer{w: bufio.NewWriterSize(w, 64*1024), lineWidth: lineWidth}
}

// Write emits one record.
func (fw *Writer) Write(r Record) error {
	if r.ID == "" || strings.ContainsAny(r.ID, " \t\r\n") {
		return fmt.Errorf("fasta: invalid record id %q", r.ID)
	}
	if strings.ContainsAny(r.Description, "\r\n") {
		return fmt.Errorf("fasta: description of %s spans lines", r.ID)
	}

	fw.w.WriteByte('>')
	fw.w.WriteString(r.ID)
	if r.Description != "" {
		fw.w.WriteByte(' ')
		fw.w.WriteString(r.Description)
	}
	fw.w.WriteByte('\n')

	seq := r.Seq
	if fw.lineWidth == 0 {
		fw.w.Write(seq)
		fw.w.WriteByte('\n')
	} else {
		for len(seq) > 0 {
			n := min(fw.lineWidth, len(seq))
			fw.w.Write(seq[:n])
			fw.w.WriteByte('\n')
			seq = seq[n:]
		}
		if len(r.Seq) == 0 {
			fw.w.WriteByte('\n')
		}
	}

	fw.records++
	fw.bases += int64(len(r.Seq))
	// bufio.Writer keeps the first error; surface it here rather than at Flush.
	_, err := fw.w.Write(nil)
	return err
}

// Flush writes buffered data to the underlying writer.
func (fw *Writer) Flush() error { return fw.w.Flush() }

// Records is the number of records written so far.
func (fw *Writer) Records() int { return fw.records }

// Bases is the number of sequence letters written so far.
func (fw *Writer) Bases() int64 { return fw.bases }

// Reader parses records from a stream.
type Reader struct {
	sc         *bufio.Scanner
	pending    string // header line of the next record, without '>'
	hasPending bool
	line       int
	done       bool
}

// NewReader wraps r. Lines up to 64 MiB are accepted so unwrapped long reads parse.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Read returns the next record, or io.EOF after the last one.
func (fr *Reader) Read() (Record, error) {
	if !fr.hasPending {
		for !fr.done {
			line, ok := fr.next()
			if !ok {
				break
			}
			if len(line) == 0 {
				continue
			}
			if line[0] != '>' {
				return Record{}, fmt.Errorf("fasta: line %d: sequence before first header", fr.line)
			}
			fr.pending, fr.hasPending = string(line[1:]), true
			break
		}
		if !fr.hasPending {
			if err := fr.sc.Err(); err != nil {
				return Record{}, err
			}
			return Record{}, io.EOF
		}
	}

	id, desc, _ := strings.Cut(strings.TrimSpace(fr.pending), " ")
	if id == "" {
		return Record{}, fmt.Errorf("fasta: line %d: empty record id", fr.line)
	}
	rec := Record{ID: id, Description: strings.TrimSpace(desc)}
	fr.pending, fr.hasPending = "", false

	for {
		line, ok := fr.next()
		if !ok {
			break
		}
		if len(line) > 0 && line[0] == '>' {
			fr.pending, fr.hasPending = string(line[1:]), true
			break
		}
		rec.Seq = append(rec.Seq, bytes.TrimSpace(line)...)
	}
	if err := fr.sc.Err(); err != nil {
		return Record{}, err
	}
	if rec.Seq == nil {
		rec.Seq = []byte{}
	}
	return rec, nil
}

func (fr *Reader) next() ([]byte, bool) {
	if fr.done || !fr.sc.Scan() {
		fr.done = true
		return nil, false
	}
	fr.line++
	return fr.sc.Bytes(), true
}
