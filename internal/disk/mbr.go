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
	"log/slog"

	"github.com/ostafen/blkpart/internal/blockio"
)

const (
	MBRSize      = 512
	MBRSignature = 0xAA55

	mbrPartitionTableOffset = 0x1BE
	mbrSignatureOffset      = 0x1FE
	mbrPartitionEntrySize   = 16
)

// MBRPartitionEntry represents a single 16-byte entry in the MBR's partition table.
// All multi-byte fields are stored as byte arrays to explicitly handle little-endian
// conversion when reading from the raw MBR byte slice.
type MBRPartitionEntry struct {
	BootIndicator uint8        // 0x00: 0x80 for bootable, 0x00 for inactive
	StartCHS      [3]byte      // 0x01: Starting Cylinder-Head-Sector address
	PartitionType MBRPartition // 0x04: Partition type ID (e.g., 0x0B for FAT32, 0x83 for Linux)
	EndCHS        [3]byte      // 0x05: Ending Cylinder-Head-Sector address
	StartLBA      [4]byte      // 0x08: Starting Logical Block Address (LBA) - uint32, Little-Endian
	TotalSectors  [4]byte      // 0x0C: Total sectors in partition - uint32, Little-Endian
}

// ReadStartLBA returns the starting LBA of the partition.
func (p *MBRPartitionEntry) ReadStartLBA() uint32 {
	return binary.LittleEndian.Uint32(p.StartLBA[:])
}

// ReadTotalSectors returns the total number of sectors in the partition.
func (p *MBRPartitionEntry) ReadTotalSectors() uint32 {
	return binary.LittleEndian.Uint32(p.TotalSectors[:])
}

func (p *MBRPartitionEntry) IsBootable() bool {
	return p.BootIndicator == 0x80
}

// IsExtended reports whether the entry starts an extended partition chain.
func (p *MBRPartitionEntry) IsExtended() bool {
	switch p.PartitionType {
	case PartitionTypeExtendedCHS, PartitionTypeExtendedLBA, PartitionTypeLinuxExtended:
		return true
	}
	return false
}

// MBR represents the Master Boot Record structure.
type MBR struct {
	BootCode         [440]byte            // 0x000-0x1B7: Bootstrap code
	DiskSignature    [4]byte              // 0x1B8-0x1BB: Optional 32-bit disk signature
	Reserved         [2]byte              // 0x1BC-0x1BD: Usually 0x0000
	PartitionEntries [4]MBRPartitionEntry // 0x1BE-0x1FD: Four 16-byte partition entries
	Signature        [2]byte              // 0x1FE-0x1FF: MBR signature (0x55AA)
}

// ReadDiskSignature returns the disk signature as a uint32.
func (m *MBR) ReadDiskSignature() uint32 {
	return binary.LittleEndian.Uint32(m.DiskSignature[:])
}

// ReadSignature returns the MBR signature (should be 0xAA55).
func (m *MBR) ReadSignature() uint16 {
	return binary.LittleEndian.Uint16(m.Signature[:])
}

// ParseMBR parses the first 512 bytes of data into an MBR struct.
// Blocks larger than 512 bytes are accepted, the trailing bytes are ignored.
func ParseMBR(data []byte) (*MBR, error) {
	if len(data) < MBRSize {
		return nil, fmt.Errorf("%w: MBR block too short: expected %d bytes, got %d bytes", ErrFormat, MBRSize, len(data))
	}

	var mbr MBR

	copy(mbr.BootCode[:], data[0x000:0x1B8])
	copy(mbr.DiskSignature[:], data[0x1B8:0x1BC])
	copy(mbr.Reserved[:], data[0x1BC:mbrPartitionTableOffset])

	for i := range mbr.PartitionEntries {
		entryOffset := mbrPartitionTableOffset + i*mbrPartitionEntrySize
		entryBytes := data[entryOffset : entryOffset+mbrPartitionEntrySize]

		mbr.PartitionEntries[i].BootIndicator = entryBytes[0x00]
		copy(mbr.PartitionEntries[i].StartCHS[:], entryBytes[0x01:0x04])
		mbr.PartitionEntries[i].PartitionType = MBRPartition(entryBytes[0x04])
		copy(mbr.PartitionEntries[i].EndCHS[:], entryBytes[0x05:0x08])
		copy(mbr.PartitionEntries[i].StartLBA[:], entryBytes[0x08:0x0C])
		copy(mbr.PartitionEntries[i].TotalSectors[:], entryBytes[0x0C:0x10])
	}

	copy(mbr.Signature[:], data[mbrSignatureOffset:mbrSignatureOffset+2])

	if mbr.ReadSignature() != MBRSignature {
		return nil, fmt.Errorf("%w: invalid MBR signature: expected 0x%04X, got 0x%04X", ErrFormat, MBRSignature, mbr.ReadSignature())
	}
	return &mbr, nil
}

// ReadMBR reads block 0 of dev and returns the primary partitions it
// describes, in slot order. A protective entry stops the walk with
// ErrProtectiveMBR. Extended partitions are not expanded.
func ReadMBR(dev blockio.Device, logger *slog.Logger) ([]Partition, error) {
	_, partitions, err := readMBR(dev, logger)
	return partitions, err
}

func readMBR(dev blockio.Device, logger *slog.Logger) (*MBR, []Partition, error) {
	if logger == nil {
		logger = discardLogger
	}

	media := dev.Media()
	if media.BlockSize < MBRSize {
		return nil, nil, fmt.Errorf("%w: block size %d cannot hold an MBR", ErrFormat, media.BlockSize)
	}

	block := make([]byte, media.BlockSize)
	if err := dev.ReadBlocks(media.MediaID, 0, block); err != nil {
		return nil, nil, deviceError(err, "reading MBR")
	}

	mbr, err := ParseMBR(block)
	if err != nil {
		return nil, nil, err
	}

	diskSignature := mbr.ReadDiskSignature()

	var partitions []Partition
	for i := range mbr.PartitionEntries {
		e := &mbr.PartitionEntries[i]

		switch {
		case e.PartitionType == PartitionTypeEmpty:
			continue
		case e.PartitionType == PartitionTypeGPTProtective:
			return nil, nil, fmt.Errorf("%w in slot %d", ErrProtectiveMBR, i)
		case e.IsExtended():
			logger.Warn("skipping extended partition", "slot", i, "type", fmt.Sprintf("0x%02X", uint8(e.PartitionType)))
			continue
		}

		start := uint64(e.ReadStartLBA())
		total := uint64(e.ReadTotalSectors())
		if total == 0 || start+total-1 > media.LastBlock {
			logger.Warn("skipping unusable MBR slot", "slot", i, "start", start, "sectors", total)
			continue
		}

		partitions = append(partitions, Partition{
			Index:    i,
			Start:    start,
			End:      start + total - 1,
			Type:     ClassifyMBR(e.PartitionType),
			TypeGUID: mbrTypeGUID(e.PartitionType),
			PartUUID: fmt.Sprintf("%08x-%02x", diskSignature, i+1),
			Name:     e.PartitionType.String(),
			Bootable: e.IsBootable(),
			Valid:    true,
		})
	}

	if len(partitions) == 0 {
		return mbr, nil, ErrNoPartitions
	}
	return mbr, partitions, nil
}

type MBRPartition uint8

const (
	PartitionTypeEmpty                MBRPartition = 0x00
	PartitionTypeFAT12                MBRPartition = 0x01
	PartitionTypeFAT16LessThan32MB    MBRPartition = 0x04
	PartitionTypeExtendedCHS          MBRPartition = 0x05
	PartitionTypeFAT16GreaterThan32MB MBRPartition = 0x06
	PartitionTypeNTFSHPFSexFATQNX     MBRPartition = 0x07
	PartitionTypeFAT32CHS             MBRPartition = 0x0B
	PartitionTypeFAT32LBA             MBRPartition = 0x0C
	PartitionTypeFAT16LBA             MBRPartition = 0x0E
	PartitionTypeExtendedLBA          MBRPartition = 0x0F
	PartitionTypeAndroidBoot          MBRPartition = 0x72
	PartitionTypeAndroidSystem        MBRPartition = 0x74
	PartitionTypeAndroidCache         MBRPartition = 0x76
	PartitionTypeAndroidData          MBRPartition = 0x78
	PartitionTypeLinuxSwap            MBRPartition = 0x82
	PartitionTypeLinuxFilesystem      MBRPartition = 0x83
	PartitionTypeLinuxExtended        MBRPartition = 0x85
	PartitionTypeLinuxLVM             MBRPartition = 0x8E
	PartitionTypeGPTProtective        MBRPartition = 0xEE
	PartitionTypeEFISystemPartition   MBRPartition = 0xEF
)

func (id MBRPartition) String() string {
	switch id {
	case PartitionTypeEmpty:
		return "Empty"
	case PartitionTypeFAT12:
		return "FAT12"
	case PartitionTypeFAT16LessThan32MB:
		return "FAT16 (<32MB)"
	case PartitionTypeExtendedCHS:
		return "Extended (CHS)"
	case PartitionTypeFAT16GreaterThan32MB:
		return "FAT16 (>32MB)"
	case PartitionTypeNTFSHPFSexFATQNX:
		return "NTFS/HPFS/exFAT/QNX"
	case PartitionTypeFAT32CHS:
		return "FAT32 (CHS)"
	case PartitionTypeFAT32LBA:
		return "FAT32 (LBA)"
	case PartitionTypeFAT16LBA:
		return "FAT16 (LBA)"
	case PartitionTypeExtendedLBA:
		return "Extended (LBA)"
	case PartitionTypeAndroidBoot:
		return "Android boot"
	case PartitionTypeAndroidSystem:
		return "Android system"
	case PartitionTypeAndroidCache:
		return "Android cache"
	case PartitionTypeAndroidData:
		return "Android data"
	case PartitionTypeLinuxSwap:
		return "Linux swap"
	case PartitionTypeLinuxFilesystem:
		return "Linux filesystem"
	case PartitionTypeLinuxExtended:
		return "Linux extended"
	case PartitionTypeLinuxLVM:
		return "Linux LVM"
	case PartitionTypeGPTProtective:
		return "GPT Protective MBR"
	case PartitionTypeEFISystemPartition:
		return "EFI System Partition"
	default:
		return fmt.Sprintf("Unknown (0x%02X)", uint8(id))
	}
}
