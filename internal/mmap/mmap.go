//go:build !windows
// +build !windows

package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapFile is a read-only shared mapping of a whole image file.
type MmapFile struct {
	Data []byte   // The memory-mapped byte slice
	File *os.File // The underlying opened file
}

func NewMmapFile(filePath string) (*MmapFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info for %q: %w", filePath, err)
	}

	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("file %q is not a regular file, cannot mmap", filePath)
	}

	size := fi.Size()
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("file %q is empty, cannot mmap", filePath)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file %q with length %d: %w", filePath, size, err)
	}

	return &MmapFile{
		Data: data,
		File: f,
	}, nil
}

func (mr *MmapFile) Close() error {
	if mr.Data != nil {
		if err := unix.Munmap(mr.Data); err != nil {
			return fmt.Errorf("failed to munmap: %w", err)
		}
		mr.Data = nil
	}

	if mr.File != nil {
		if err := mr.File.Close(); err != nil {
			return fmt.Errorf("failed to close file: %w", err)
		}
		mr.File = nil
	}
	return nil
}
