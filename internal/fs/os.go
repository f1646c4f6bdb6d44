//go:build !windows
// +build !windows

package fs

import (
	"fmt"
	"os"
)

func Open(path string) (File, error) {
	return os.Open(path)
}

// OpenWritable opens path for positional reads and writes.
func OpenWritable(path string) (WritableFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q for writing: %w", path, err)
	}
	return f, nil
}

func statGeometry(f File) (Geometry, error) {
	finfo, err := f.Stat()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to stat: %w", err)
	}
	return Geometry{
		Size:     finfo.Size(),
		IsDevice: finfo.Mode()&os.ModeDevice != 0,
	}, nil
}
