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
package blockio

import "fmt"

const DefaultBlockSize = 512

// Media describes the static parameters of a block device. A Media value is
// copied when a device is built and never changes afterwards.
type Media struct {
	MediaID          uint32 // changes whenever the physical medium is replaced
	BlockSize        uint32 // bytes per block, a power of two
	LastBlock        uint64 // last addressable LBA
	ReadOnly         bool
	Removable        bool
	WriteCaching     bool
	LogicalPartition bool
	IoAlign          uint32
}

// Size returns the capacity of the media in bytes.
func (m Media) Size() uint64 {
	return (m.LastBlock + 1) * uint64(m.BlockSize)
}

// Blocks returns the number of addressable blocks.
func (m Media) Blocks() uint64 {
	return m.LastBlock + 1
}

func (m Media) String() string {
	return fmt.Sprintf("media{id=%d, block_size=%d, last_block=%d, ro=%t}",
		m.MediaID, m.BlockSize, m.LastBlock, m.ReadOnly)
}

// BlocksFor returns the number of whole blocks needed to hold n bytes.
func BlocksFor(n uint64, blockSize uint32) uint64 {
	return (n + uint64(blockSize) - 1) / uint64(blockSize)
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
