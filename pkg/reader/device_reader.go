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
package reader

import (
	"fmt"
	"io"

	"github.com/ostafen/blkpart/internal/blockio"
)

// maxChunk bounds the scratch buffer allocated by a single device request.
const maxChunk = 1 << 20

// DeviceReader adapts a block device to byte-addressed reads. Unaligned
// requests are served by reading the covering blocks.
type DeviceReader struct {
	dev   blockio.Device
	media blockio.Media
	size  int64
	off   int64
}

func NewDeviceReader(dev blockio.Device) *DeviceReader {
	media := dev.Media()
	return &DeviceReader{
		dev:   dev,
		media: media,
		size:  int64(media.Size()),
	}
}

func (r *DeviceReader) Size() int64 {
	return r.size
}

func (r *DeviceReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("DeviceReader.ReadAt: negative offset %d", off)
	}

	if off >= r.size {
		return 0, io.EOF
	}

	want := len(p)
	if int64(want) > r.size-off {
		p = p[:r.size-off]
	}

	bs := int64(r.media.BlockSize)
	chunkBlocks := int64(maxChunk) / bs
	if chunkBlocks == 0 {
		chunkBlocks = 1
	}

	var scratch []byte

	n := 0
	for n < len(p) {
		pos := off + int64(n)
		lba := pos / bs
		skip := pos % bs

		blocks := (skip + int64(len(p)-n) + bs - 1) / bs
		blocks = min(blocks, chunkBlocks)

		size := int(blocks * bs)
		if cap(scratch) < size {
			scratch = make([]byte, size)
		}
		buf := scratch[:size]

		if err := r.dev.ReadBlocks(r.media.MediaID, uint64(lba), buf); err != nil {
			return n, err
		}
		n += copy(p[n:], buf[skip:])
	}

	if n < want {
		return n, io.EOF
	}
	return n, nil
}

func (r *DeviceReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.off)
	r.off += int64(n)
	return n, err
}

func (r *DeviceReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += r.off
	case io.SeekEnd:
		offset += r.size
	default:
		return -1, fmt.Errorf("DeviceReader.Seek: invalid whence (%d)", whence)
	}

	if offset < 0 {
		return -1, fmt.Errorf("DeviceReader.Seek: negative position")
	}
	r.off = offset
	return offset, nil
}
