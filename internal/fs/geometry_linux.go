//go:build linux
// +build linux

// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package fs

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Probe returns the geometry of f. Block devices are queried with the
// BLKSSZGET and BLKGETSIZE64 ioctls, regular files report only their size.
func Probe(f File) (Geometry, error) {
	g, err := statGeometry(f)
	if err != nil {
		return g, err
	}

	osFile, ok := f.(*os.File)
	if !g.IsDevice || !ok {
		return g, nil
	}

	sectorSize, err := unix.IoctlGetInt(int(osFile.Fd()), unix.BLKSSZGET)
	if err != nil {
		return g, fmt.Errorf("ioctl BLKSSZGET failed: %w", err)
	}
	g.BlockSize = uint32(sectorSize)

	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, osFile.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return g, fmt.Errorf("ioctl BLKGETSIZE64 failed: %w", errno)
	}
	g.Size = int64(size)
	return g, nil
}
