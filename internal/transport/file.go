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
package transport

import (
	"fmt"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/fs"
)

// File serves blocks from a disk device or an image file. Writes are only
// accepted when the underlying file was opened writable.
type File struct {
	media blockio.Media
	f     fs.File
	w     fs.WritableFile
}

// Open opens the device or image at path and probes its geometry.
// An explicit opts.BlockSize overrides the probed sector size.
func Open(path string, opts Options) (*File, error) {
	var (
		f   fs.File
		err error
	)
	if opts.ReadOnly {
		f, err = fs.Open(path)
	} else {
		f, err = fs.OpenWritable(path)
	}
	if err != nil {
		return nil, err
	}

	t, err := NewFile(f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// NewFile wraps an already opened file.
func NewFile(f fs.File, opts Options) (*File, error) {
	g, err := fs.Probe(f)
	if err != nil {
		return nil, err
	}

	if opts.BlockSize == 0 {
		opts.BlockSize = g.BlockSize
	}

	w, writable := f.(fs.WritableFile)
	if !writable {
		opts.ReadOnly = true
	}

	media, err := buildMedia(g.Size, opts)
	if err != nil {
		return nil, err
	}
	media.WriteCaching = writable && !opts.ReadOnly

	return &File{media: media, f: f, w: w}, nil
}

func (t *File) Media() blockio.Media {
	return t.media
}

func (t *File) ReadBlocks(mediaID uint32, lba uint64, buf []byte) error {
	off, err := checkTransfer(t.media, mediaID, lba, len(buf))
	if err != nil {
		return err
	}
	return readFull(t.f, buf, off)
}

func (t *File) WriteBlocks(mediaID uint32, lba uint64, buf []byte) error {
	if t.media.ReadOnly {
		return blockio.ErrWriteProtected
	}

	off, err := checkTransfer(t.media, mediaID, lba, len(buf))
	if err != nil {
		return err
	}
	_, err = t.w.WriteAt(buf, off)
	return err
}

func (t *File) Flush() error {
	if t.media.ReadOnly {
		return nil
	}
	return t.w.Sync()
}

func (t *File) Reset(extended bool) error { return nil }

func (t *File) Close() error {
	return t.f.Close()
}
