//go:build windows
// +build windows

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
	"io"
	"os"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

type WindowsDiskFile struct {
	handle     windows.Handle
	offset     int64 // used for io.Reader
	sectorSize int64
}

type diskFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	sys     any
}

func (fi *diskFileInfo) Name() string       { return fi.name }
func (fi *diskFileInfo) Size() int64        { return fi.size }
func (fi *diskFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *diskFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *diskFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *diskFileInfo) Sys() interface{}   { return fi.sys }

// Open opens a disk/volume for raw reading.
func Open(path string) (File, error) {
	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0, // windows.FILE_FLAG_OVERLAPPED
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &WindowsDiskFile{handle: handle, sectorSize: 512}, nil
}

// OpenWritable is not supported for raw Windows volumes.
func OpenWritable(path string) (WritableFile, error) {
	return nil, fmt.Errorf("opening %q for writing is not supported on windows", path)
}

// Probe returns the sector size and length of a raw disk, falling back to
// Stat for regular files.
func Probe(f File) (Geometry, error) {
	d, ok := f.(*WindowsDiskFile)
	if !ok {
		finfo, err := f.Stat()
		if err != nil {
			return Geometry{}, fmt.Errorf("failed to stat: %w", err)
		}
		return Geometry{Size: finfo.Size()}, nil
	}

	finfo, err := d.Stat()
	if err != nil {
		return Geometry{}, err
	}
	geometry := finfo.Sys().(diskGeometry)
	if geometry.BytesPerSector > 0 {
		d.sectorSize = int64(geometry.BytesPerSector)
	}
	return Geometry{
		BlockSize: geometry.BytesPerSector,
		Size:      finfo.Size(),
		IsDevice:  true,
	}, nil
}

// Read reads from the current offset.
func (d *WindowsDiskFile) Read(p []byte) (int, error) {
	var bytesRead uint32
	err := windows.ReadFile(d.handle, p, &bytesRead, nil)
	if err != nil {
		return int(bytesRead), err
	}
	d.offset += int64(bytesRead)
	return int(bytesRead), nil
}

func (d *WindowsDiskFile) ReadAt(p []byte, off int64) (int, error) {
	sectorSize := d.sectorSize

	alignedOffset := off / sectorSize * sectorSize
	alignmentDiff := int(off - alignedOffset)

	// Raw handles only accept sector aligned transfers covering p.
	alignedSize := ((len(p) + alignmentDiff + int(sectorSize) - 1) / int(sectorSize)) * int(sectorSize)

	buf := make([]byte, alignedSize)

	var bytesRead uint32
	ov := new(windows.Overlapped)
	ov.Offset = uint32(alignedOffset)
	ov.OffsetHigh = uint32(alignedOffset >> 32)

	err := windows.ReadFile(d.handle, buf, &bytesRead, ov)
	if err != nil {
		if err == syscall.ERROR_IO_PENDING {
			err = windows.GetOverlappedResult(d.handle, ov, &bytesRead, true)
		}
		if err != nil {
			return 0, fmt.Errorf("aligned read failed: %w", err)
		}
	}

	if int(bytesRead) <= alignmentDiff {
		return 0, io.EOF
	}

	n := copy(p, buf[alignmentDiff:bytesRead])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

const (
	ioctlDiskGetDriveGeometry = 0x70000
	ioctlDiskGetLengthInfo    = 0x7405C
)

func (d *WindowsDiskFile) ioctl(code uint32, out unsafe.Pointer, size uintptr) error {
	var bytesReturned uint32
	return windows.DeviceIoControl(d.handle, code, nil, 0, (*byte)(out), uint32(size), &bytesReturned, nil)
}

// Stat reports the disk length from IOCTL_DISK_GET_LENGTH_INFO. The drive
// geometry is returned by Sys.
func (d *WindowsDiskFile) Stat() (os.FileInfo, error) {
	var geometry diskGeometry
	if err := d.ioctl(ioctlDiskGetDriveGeometry, unsafe.Pointer(&geometry), unsafe.Sizeof(geometry)); err != nil {
		return nil, fmt.Errorf("IOCTL_DISK_GET_DRIVE_GEOMETRY failed: %w", err)
	}

	var length int64
	if err := d.ioctl(ioctlDiskGetLengthInfo, unsafe.Pointer(&length), unsafe.Sizeof(length)); err != nil {
		return nil, fmt.Errorf("IOCTL_DISK_GET_LENGTH_INFO failed: %w", err)
	}

	return &diskFileInfo{size: length, sys: geometry}, nil
}

func (d *WindowsDiskFile) Close() error {
	return windows.CloseHandle(d.handle)
}
