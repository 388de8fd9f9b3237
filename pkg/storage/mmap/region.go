// Package mmap maps read-only store files into memory.
//
// Physical I/O is lazy: pages are faulted in by the kernel on first access, so
// opening a multi-gigabyte store is cheap and only the reads a query touches are
// ever loaded. A Region is immutable once opened and may be shared by any number
// of goroutines without locking.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/sanonone/readgraph/pkg/core/types"
)

// Region is a read-only memory-mapped file.
type Region struct {
	path string
	file *os.File
	data []byte

	closeOnce sync.Once
	closeErr  error
}

// Open maps the whole file at path read-only.
// A transient mapping failure is retried once before giving up.
func Open(path string) (*Region, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, types.ErrStorageUnavailable, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w: %w", path, types.ErrStorageUnavailable, err)
	}
	if info.Size() == 0 {
		file.Close()
		return nil, fmt.Errorf("%s is empty: %w", path, types.ErrStorageUnavailable)
	}
	if int64(int(info.Size())) != info.Size() {
		file.Close()
		return nil, fmt.Errorf("%s is too large to map: %w", path, types.ErrStorageUnavailable)
	}

	data, err := mmapFile(file.Fd(), int(info.Size()))
	if err != nil && isTransient(err) {
		data, err = mmapFile(file.Fd(), int(info.Size()))
	}
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap %s: %w: %w", path, types.ErrStorageUnavailable, err)
	}

	return &Region{path: path, file: file, data: data}, nil
}

// Bytes returns the mapped file. The slice must not be written to and must not
// be used after Close.
func (r *Region) Bytes() []byte { return r.data }

// Len is the file size in bytes.
func (r *Region) Len() int { return len(r.data) }

// Path is the file the region maps.
func (r *Region) Path() string { return r.path }

// Close unmaps the file. Calling it more than once is safe.
func (r *Region) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if r.data != nil {
			errs = append(errs, munmapFile(r.data))
			r.data = nil
		}
		if r.file != nil {
			errs = append(errs, r.file.Close())
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

// --- ZERO-COPY CASTING HELPERS ---
// Store files are little-endian; these casts assume a little-endian host and
// an offset aligned to the element size.

// BytesToUint64Slice views b as n uint64 values without copying.
func BytesToUint64Slice(b []byte, n int) []uint64 {
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), n)
}

// BytesToUint32Slice views b as n uint32 values without copying.
func BytesToUint32Slice(b []byte, n int) []uint32 {
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), n)
}
