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
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/go-restruct/restruct"
	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/checksum"
)

const (
	GPTSignature     = 0x5452415020494645 // "EFI PART"
	GPTRevision      = 0x00010000
	GPTHeaderSize    = 92
	GPTEntrySize     = 128
	PrimaryHeaderLBA = 1

	gptHeaderCRCOffset = 16
	maxEntryArraySize  = 4 << 20

	// AttrLegacyBIOSBootable is bit 2 of the entry attributes.
	AttrLegacyBIOSBootable = 1 << 2
)

// GPTHeader is the on-disk GPT header.
type GPTHeader struct {
	Signature                uint64
	Revision                 uint32
	HeaderSize               uint32
	HeaderCRC32              uint32
	Reserved                 uint32
	MyLBA                    uint64
	AlternateLBA             uint64
	FirstUsableLBA           uint64
	LastUsableLBA            uint64
	DiskGUID                 GUID
	PartitionEntryLBA        uint64
	NumberOfPartitionEntries uint32
	SizeOfPartitionEntry     uint32
	PartitionEntryArrayCRC32 uint32
}

// GPTEntry is the fixed 128-byte prefix of an on-disk partition entry.
type GPTEntry struct {
	TypeGUID    GUID
	UniqueGUID  GUID
	StartingLBA uint64
	EndingLBA   uint64
	Attributes  uint64
	Name        [72]byte
}

func (e *GPTEntry) IsUsed() bool {
	return !e.TypeGUID.IsZero()
}

// EntryArraySize returns the number of bytes covered by the entry array checksum.
func (h *GPTHeader) EntryArraySize() uint64 {
	return uint64(h.NumberOfPartitionEntries) * uint64(h.SizeOfPartitionEntry)
}

// IsPrimary reports whether the header describes the primary copy of the table.
func (h *GPTHeader) IsPrimary() bool {
	return h.MyLBA < h.AlternateLBA
}

// AlternateEntryLBA returns the location of the other copy of the entry array.
// The backup array sits right before the backup header, the primary one right
// after the primary header.
func (h *GPTHeader) AlternateEntryLBA(blockSize uint32) (uint64, bool) {
	if !h.IsPrimary() {
		return h.AlternateLBA + 1, true
	}

	blocks := blockio.BlocksFor(h.EntryArraySize(), blockSize)
	if h.AlternateLBA <= blocks {
		return 0, false
	}
	return h.AlternateLBA - blocks, true
}

// ParseGPTHeader decodes and validates a GPT header occupying block.
func ParseGPTHeader(block []byte) (*GPTHeader, error) {
	if len(block) < GPTHeaderSize {
		return nil, fmt.Errorf("%w: block of %d bytes cannot hold a GPT header", ErrFormat, len(block))
	}

	var hdr GPTHeader
	if err := restruct.Unpack(block[:GPTHeaderSize], binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if hdr.Signature != GPTSignature {
		return nil, fmt.Errorf("%w: invalid GPT signature 0x%016X", ErrFormat, hdr.Signature)
	}

	if hdr.Revision != GPTRevision {
		return nil, fmt.Errorf("%w: 0x%08X", ErrUnsupportedVersion, hdr.Revision)
	}

	if hdr.HeaderSize < GPTHeaderSize || int(hdr.HeaderSize) > len(block) {
		return nil, fmt.Errorf("%w: invalid GPT header size %d", ErrFormat, hdr.HeaderSize)
	}

	crc := checksum.ComputeZeroed(block[:hdr.HeaderSize], gptHeaderCRCOffset)
	if crc != hdr.HeaderCRC32 {
		return nil, fmt.Errorf("%w: GPT header checksum 0x%08X, expected 0x%08X", ErrIntegrity, crc, hdr.HeaderCRC32)
	}
	return &hdr, nil
}

// ReadGPTHeader reads and validates the GPT header stored at lba.
func ReadGPTHeader(dev blockio.Device, lba uint64) (*GPTHeader, error) {
	media := dev.Media()

	block := make([]byte, media.BlockSize)
	if err := dev.ReadBlocks(media.MediaID, lba, block); err != nil {
		return nil, deviceError(err, fmt.Sprintf("reading GPT header at LBA %d", lba))
	}

	hdr, err := ParseGPTHeader(block)
	if err != nil {
		return nil, err
	}

	if hdr.MyLBA != lba {
		return nil, fmt.Errorf("%w: GPT header at LBA %d claims LBA %d", ErrFormat, lba, hdr.MyLBA)
	}
	return hdr, nil
}

// ReadGPTEntries reads the entry array described by hdr starting at lba and
// verifies its checksum. Every slot is returned, used or not, in array order.
func ReadGPTEntries(dev blockio.Device, hdr *GPTHeader, lba uint64) ([]GPTEntry, error) {
	media := dev.Media()

	if hdr.NumberOfPartitionEntries == 0 ||
		hdr.SizeOfPartitionEntry < GPTEntrySize ||
		hdr.SizeOfPartitionEntry%8 != 0 {
		return nil, fmt.Errorf("%w: invalid entry array geometry (%d entries of %d bytes)",
			ErrFormat, hdr.NumberOfPartitionEntries, hdr.SizeOfPartitionEntry)
	}

	size := hdr.EntryArraySize()
	if size > maxEntryArraySize {
		return nil, fmt.Errorf("%w: entry array of %d bytes is too large", ErrFormat, size)
	}

	blocks := blockio.BlocksFor(size, media.BlockSize)
	if lba > media.LastBlock || blocks-1 > media.LastBlock-lba {
		return nil, fmt.Errorf("%w: entry array at LBA %d (%d blocks) outside media", ErrFormat, lba, blocks)
	}

	buf := make([]byte, blocks*uint64(media.BlockSize))
	if err := dev.ReadBlocks(media.MediaID, lba, buf); err != nil {
		return nil, deviceError(err, fmt.Sprintf("reading GPT entries at LBA %d", lba))
	}

	crc := checksum.Compute(buf[:size])
	if crc != hdr.PartitionEntryArrayCRC32 {
		return nil, fmt.Errorf("%w: GPT entry array checksum 0x%08X, expected 0x%08X", ErrIntegrity, crc, hdr.PartitionEntryArrayCRC32)
	}

	entries := make([]GPTEntry, hdr.NumberOfPartitionEntries)
	for i := range entries {
		off := uint64(i) * uint64(hdr.SizeOfPartitionEntry)

		if err := restruct.Unpack(buf[off:off+GPTEntrySize], binary.LittleEndian, &entries[i]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrFormat, i, err)
		}
	}
	return entries, nil
}

// CheckUsableRange verifies that the usable area advertised by hdr lies
// within the media and after the header itself.
func CheckUsableRange(hdr *GPTHeader, media blockio.Media) error {
	if hdr.FirstUsableLBA > hdr.LastUsableLBA || hdr.LastUsableLBA > media.LastBlock {
		return fmt.Errorf("%w: usable range [%d, %d] outside media (last block %d)",
			ErrIntegrity, hdr.FirstUsableLBA, hdr.LastUsableLBA, media.LastBlock)
	}
	return nil
}

// gptPartitions converts the used entries to partition records. Records that
// leave the media are always rejected. Records outside the usable range or
// overlapping each other are rejected in strict mode and flagged as invalid
// otherwise.
func gptPartitions(hdr *GPTHeader, entries []GPTEntry, media blockio.Media, strict bool) ([]Partition, error) {
	var partitions []Partition
	for i := range entries {
		e := &entries[i]
		if !e.IsUsed() {
			continue
		}

		if e.StartingLBA > e.EndingLBA || e.EndingLBA > media.LastBlock {
			return nil, fmt.Errorf("%w: partition %d range [%d, %d] outside media (last block %d)",
				ErrIntegrity, i, e.StartingLBA, e.EndingLBA, media.LastBlock)
		}

		typeGUID := e.TypeGUID.UUID()
		p := Partition{
			Index:      i,
			Start:      e.StartingLBA,
			End:        e.EndingLBA,
			Type:       ClassifyGPT(typeGUID),
			TypeGUID:   typeGUID,
			UniqueID:   e.UniqueGUID.UUID(),
			Name:       decodeName(e.Name[:]),
			Attributes: e.Attributes,
			Bootable:   e.Attributes&AttrLegacyBIOSBootable != 0,
			Valid:      e.StartingLBA >= hdr.FirstUsableLBA && e.EndingLBA <= hdr.LastUsableLBA,
		}

		if strict && !p.Valid {
			return nil, fmt.Errorf("%w: partition %d range [%d, %d] outside usable range [%d, %d]",
				ErrIntegrity, i, e.StartingLBA, e.EndingLBA, hdr.FirstUsableLBA, hdr.LastUsableLBA)
		}
		partitions = append(partitions, p)
	}

	if err := markOverlaps(partitions); err != nil && strict {
		return nil, err
	}
	return partitions, nil
}

// markOverlaps clears the Valid flag of every pair of overlapping records and
// reports the first overlap found.
func markOverlaps(partitions []Partition) error {
	order := make([]int, len(partitions))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return partitions[order[a]].Start < partitions[order[b]].Start
	})

	var firstErr error
	for k := 1; k < len(order); k++ {
		cur := &partitions[order[k]]
		for j := k - 1; j >= 0; j-- {
			prev := &partitions[order[j]]
			if prev.End < cur.Start {
				continue
			}

			prev.Valid = false
			cur.Valid = false
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: partitions %d and %d overlap", ErrIntegrity, prev.Index, cur.Index)
			}
		}
	}
	return firstErr
}
