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
package checksum

import "hash/crc32"

// Compute returns the CRC-32 (IEEE 802.3, reflected polynomial 0xEDB88320)
// of b. This is the variant GPT uses for both the header and the entry array.
func Compute(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// ComputeZeroed returns the checksum of b with the four bytes at off treated
// as zero. b is left untouched.
func ComputeZeroed(b []byte, off int) uint32 {
	var zero [4]byte

	h := crc32.NewIEEE()
	h.Write(b[:off])
	h.Write(zero[:])
	h.Write(b[off+4:])
	return h.Sum32()
}
