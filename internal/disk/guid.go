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
package disk

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// GUID is a 16-byte identifier as stored on disk: the first three groups are
// little-endian, the remaining eight bytes are stored as is.
type GUID [16]byte

// GUIDFromUUID converts the canonical form of an identifier to its on-disk
// layout.
func GUIDFromUUID(u uuid.UUID) GUID {
	return GUID(swapGUIDBytes(u))
}

// UUID returns the canonical (big-endian) form of g.
func (g GUID) UUID() uuid.UUID {
	return uuid.UUID(swapGUIDBytes(g))
}

func (g GUID) IsZero() bool {
	return g == GUID{}
}

func (g GUID) String() string {
	return strings.ToUpper(g.UUID().String())
}

func swapGUIDBytes(b [16]byte) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:])
	return out
}

// decodeName decodes a NUL-terminated UTF-16LE partition name.
func decodeName(raw []byte) string {
	n := len(raw) &^ 1
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			n = i
			break
		}
	}

	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	name, err := dec.Bytes(raw[:n])
	if err != nil {
		return ""
	}
	return string(name)
}
