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
	"errors"
	"fmt"
	"io"

	"github.com/ostafen/blkpart/internal/blockio"
)

// Options are the static media parameters a transport advertises.
type Options struct {
	BlockSize uint32 // 0 selects the size reported by the source, or blockio.DefaultBlockSize
	MediaID   uint32
	ReadOnly  bool
	Removable bool
}

var ErrOutOfRange = errors.New("transfer out of range")

func buildMedia(size int64, opts Options) (blockio.Media, error) {
	bs := opts.BlockSize
	if bs == 0 {
		bs = blockio.DefaultBlockSize
	}

	if !blockio.IsPowerOfTwo(bs) {
		return blockio.Media{}, fmt.Errorf("block size %d is not a power of two", bs)
	}

	if size < int64(bs) {
		return blockio.Media{}, fmt.Errorf("media size %d is smaller than one block of %d bytes", size, bs)
	}

	return blockio.Media{
		MediaID:   opts.MediaID,
		BlockSize: bs,
		LastBlock: uint64(size)/uint64(bs) - 1,
		ReadOnly:  opts.ReadOnly,
		Removable: opts.Removable,
		IoAlign:   4,
	}, nil
}

// checkTransfer returns the byte offset of a transfer of n bytes at lba.
func checkTransfer(m blockio.Media, mediaID uint32, lba uint64, n int) (int64, error) {
	if mediaID != m.MediaID {
		return 0, blockio.ErrMediaChanged
	}

	if lba > m.LastBlock || uint64(n) > (m.LastBlock-lba+1)*uint64(m.BlockSize) {
		return 0, fmt.Errorf("%w: %d bytes at LBA %d", ErrOutOfRange, n, lba)
	}
	return int64(lba) * int64(m.BlockSize), nil
}

func readFull(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
