package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeAtomic runs write against a temporary file next to path and renames it
// into place once everything is on disk. The temporary file is removed on
// any failure.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriterSize(f, 1024*1024)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync output %s: %w", path, err)
	}
	if err = f.Chmod(0644); err != nil {
		return fmt.Errorf("chmod output %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close output %s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename output into %s: %w", path, err)
	}
	return nil
}
