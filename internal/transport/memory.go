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

import "github.com/ostafen/blkpart/internal/blockio"

// Memory serves blocks from a byte slice. Trailing bytes that do not fill a
// whole block are not addressable.
type Memory struct {
	media blockio.Media
	data  []byte
}

func NewMemory(data []byte, opts Options) (*Memory, error) {
	media, err := buildMedia(int64(len(data)), opts)
	if err != nil {
		return nil, err
	}
	return &Memory{media: media, data: data}, nil
}

func (m *Memory) Media() blockio.Media {
	return m.media
}

func (m *Memory) ReadBlocks(mediaID uint32, lba uint64, buf []byte) error {
	off, err := checkTransfer(m.media, mediaID, lba, len(buf))
	if err != nil {
		return err
	}
	copy(buf, m.data[off:])
	return nil
}

func (m *Memory) WriteBlocks(mediaID uint32, lba uint64, buf []byte) error {
	if m.media.ReadOnly {
		return blockio.ErrWriteProtected
	}

	off, err := checkTransfer(m.media, mediaID, lba, len(buf))
	if err != nil {
		return err
	}
	copy(m.data[off:], buf)
	return nil
}

func (m *Memory) Flush() error { return nil }

func (m *Memory) Reset(extended bool) error { return nil }

// Bytes returns the backing slice.
func (m *Memory) Bytes() []byte {
	return m.data
}
