package mmap

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sanonone/readgraph/pkg/core/types"
)

func TestOpenMapsFileReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	payload := make([]byte, 24)
	binary.LittleEndian.PutUint64(payload[0:8], 7)
	binary.LittleEndian.PutUint64(payload[8:16], 1<<40)
	binary.LittleEndian.PutUint32(payload[16:20], 99)
	binary.LittleEndian.PutUint32(payload[20:24], 100)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if r.Len() != len(payload) {
		t.Fatalf("Len = %d, want %d", r.Len(), len(payload))
	}
	u64 := BytesToUint64Slice(r.Bytes()[0:16], 2)
	if u64[0] != 7 || u64[1] != 1<<40 {
		t.Errorf("uint64 view = %v", u64)
	}
	u32 := BytesToUint32Slice(r.Bytes()[16:24], 2)
	if u32[0] != 99 || u32[1] != 100 {
		t.Errorf("uint32 view = %v", u32)
	}
}

func TestOpenFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.bin"))
	if !errors.Is(err, types.ErrStorageUnavailable) {
		t.Errorf("missing file: expected ErrStorageUnavailable, got %v", err)
	}

	empty := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err = Open(empty)
	if !errors.Is(err, types.ErrStorageUnavailable) {
		t.Errorf("empty file: expected ErrStorageUnavailable, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.bin")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestZeroLengthViews(t *testing.T) {
	if BytesToUint64Slice(nil, 0) != nil || BytesToUint32Slice([]byte{1, 2, 3, 4}, 0) != nil {
		t.Error("zero-length views should be nil")
	}
}
