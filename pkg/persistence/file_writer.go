package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// FileWriter writes one store file. Everything goes to "<path>.tmp" and is
// renamed over path by Commit, so readers never see a half-written store.
type FileWriter struct {
	file    *os.File
	buf     *bufio.Writer
	path    string
	tmpPath string
	scratch [8]byte
	done    bool
}

// Create opens the temporary file and writes the header.
func Create(path string, h Header) (*FileWriter, error) {
	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	w := &FileWriter{
		file:    file,
		buf:     bufio.NewWriterSize(file, 1<<20),
		path:    path,
		tmpPath: tmpPath,
	}
	if _, err := w.buf.Write(h.Encode()); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

// Write appends raw payload bytes.
func (w *FileWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteUint64 appends one little-endian uint64.
func (w *FileWriter) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.scratch[:], v)
	_, err := w.buf.Write(w.scratch[:8])
	return err
}

// WriteUint32 appends one little-endian uint32.
func (w *FileWriter) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	_, err := w.buf.Write(w.scratch[:4])
	return err
}

// Commit flushes, fsyncs and renames the temporary file into place.
func (w *FileWriter) Commit() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		_ = os.Remove(w.tmpPath)
		return err
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		_ = os.Remove(w.tmpPath)
		return err
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return err
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", w.path, err)
	}
	return nil
}

// Abort drops the temporary file. It is a no-op after Commit.
func (w *FileWriter) Abort() {
	if w.done {
		return
	}
	w.done = true
	_ = w.file.Close()
	_ = os.Remove(w.tmpPath)
}
