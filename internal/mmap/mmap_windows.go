//go:build windows
// +build windows

package mmap

import (
	"fmt"
	"os"
)

type MmapFile struct {
	Data []byte
	File *os.File
}

func NewMmapFile(filePath string) (*MmapFile, error) {
	return nil, fmt.Errorf("mmap of %q is not supported on windows", filePath)
}

func (mr *MmapFile) Close() error {
	return nil
}
