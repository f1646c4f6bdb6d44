// Package disktest builds partitioned disk images in memory.
package disktest

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/transport"
)

const (
	EntryCount = 128
	EntrySize  = 128
)

var DiskGUID = uuid.MustParse("A5F2B9C0-1D3E-4F50-8A6B-7C8D9E0F1A2B")

var le = binary.LittleEndian

type Partition struct {
	TypeGUID   uuid.UUID
	UniqueID   uuid.UUID
	Start      uint64
	End        uint64
	Name       string
	Attributes uint64
}

// Slot is a legacy partition table entry.
type Slot struct {
	Boot  uint8
	Type  disk.MBRPartition
	Start uint32
	Total uint32
}

type Image struct {
	Data        []byte
	BlockSize   uint32
	Blocks      uint64
	EntryBlocks uint64
}

func newImage(blockSize uint32, blocks uint64) *Image {
	return &Image{
		Data:        make([]byte, blocks*uint64(blockSize)),
		BlockSize:   blockSize,
		Blocks:      blocks,
		EntryBlocks: blockio.BlocksFor(EntryCount*EntrySize, blockSize),
	}
}

func (img *Image) Block(lba uint64) []byte {
	off := lba * uint64(img.BlockSize)
	return img.Data[off : off+uint64(img.BlockSize)]
}

func (img *Image) LastBlock() uint64 { return img.Blocks - 1 }

func (img *Image) PrimaryEntriesLBA() uint64 { return 2 }

func (img *Image) BackupEntriesLBA() uint64 { return img.LastBlock() - img.EntryBlocks }

func (img *Image) FirstUsable() uint64 { return 2 + img.EntryBlocks }

func (img *Image) LastUsable() uint64 { return img.BackupEntriesLBA() - 1 }

// ResealHeader recomputes the checksum of the GPT header stored at lba.
func (img *Image) ResealHeader(lba uint64) {
	h := img.Block(lba)
	le.PutUint32(h[16:], 0)
	le.PutUint32(h[16:], crc32.ChecksumIEEE(h[:le.Uint32(h[12:])]))
}

// Transport returns a writable in-memory transport over the image with
// media id 1.
func (img *Image) Transport(tb testing.TB) *transport.Memory {
	tb.Helper()

	tr, err := transport.NewMemory(img.Data, transport.Options{BlockSize: img.BlockSize, MediaID: 1})
	if err != nil {
		tb.Fatal(err)
	}
	return tr
}

func (img *Image) Device(tb testing.TB) blockio.Device {
	tb.Helper()
	return blockio.NewRawDevice(img.Transport(tb))
}

// NewGPT builds a disk with a protective MBR, both GPT headers and both
// copies of a 128 entry array.
func NewGPT(blockSize uint32, blocks uint64, parts []Partition) *Image {
	img := newImage(blockSize, blocks)

	total := blocks - 1
	if total > 0xFFFFFFFF {
		total = 0xFFFFFFFF
	}
	WriteMBR(img.Block(0), 0, []Slot{{Type: disk.PartitionTypeGPTProtective, Start: 1, Total: uint32(total)}})

	entries := make([]byte, EntryCount*EntrySize)
	for i, p := range parts {
		e := entries[i*EntrySize:]
		typeGUID := disk.GUIDFromUUID(p.TypeGUID)
		uniqueID := disk.GUIDFromUUID(p.UniqueID)
		copy(e[0:16], typeGUID[:])
		copy(e[16:32], uniqueID[:])
		le.PutUint64(e[32:], p.Start)
		le.PutUint64(e[40:], p.End)
		le.PutUint64(e[48:], p.Attributes)
		for j, u := range utf16.Encode([]rune(p.Name)) {
			le.PutUint16(e[56+2*j:], u)
		}
	}
	entriesCRC := crc32.ChecksumIEEE(entries)

	copy(img.Data[img.PrimaryEntriesLBA()*uint64(blockSize):], entries)
	copy(img.Data[img.BackupEntriesLBA()*uint64(blockSize):], entries)

	img.writeHeader(1, img.LastBlock(), img.PrimaryEntriesLBA(), entriesCRC)
	img.writeHeader(img.LastBlock(), 1, img.BackupEntriesLBA(), entriesCRC)
	return img
}

func (img *Image) writeHeader(my, alt, entriesLBA uint64, entriesCRC uint32) {
	h := img.Block(my)
	copy(h[0:8], "EFI PART")
	le.PutUint32(h[8:], disk.GPTRevision)
	le.PutUint32(h[12:], disk.GPTHeaderSize)
	le.PutUint64(h[24:], my)
	le.PutUint64(h[32:], alt)
	le.PutUint64(h[40:], img.FirstUsable())
	le.PutUint64(h[48:], img.LastUsable())
	diskGUID := disk.GUIDFromUUID(DiskGUID)
	copy(h[56:72], diskGUID[:])
	le.PutUint64(h[72:], entriesLBA)
	le.PutUint32(h[80:], EntryCount)
	le.PutUint32(h[84:], EntrySize)
	le.PutUint32(h[88:], entriesCRC)
	img.ResealHeader(my)
}

// NewMBR builds a disk whose block 0 holds a legacy partition table.
func NewMBR(blockSize uint32, blocks uint64, signature uint32, slots []Slot) *Image {
	img := newImage(blockSize, blocks)
	WriteMBR(img.Block(0), signature, slots)
	return img
}

func WriteMBR(block []byte, signature uint32, slots []Slot) {
	le.PutUint32(block[0x1B8:], signature)
	for i, s := range slots {
		e := block[0x1BE+16*i:]
		e[0] = s.Boot
		e[4] = byte(s.Type)
		le.PutUint32(e[8:], s.Start)
		le.PutUint32(e[12:], s.Total)
	}
	block[0x1FE] = 0x55
	block[0x1FF] = 0xAA
}

// AndroidLayout returns three partitions that fit a 1024 block image:
// an EFI system partition, an Android boot partition and one of unknown type.
func AndroidLayout() []Partition {
	return []Partition{
		{
			TypeGUID:   disk.GUIDEFISystem,
			UniqueID:   uuid.MustParse("11111111-2222-3333-4444-555555555555"),
			Start:      100,
			End:        199,
			Name:       "esp",
			Attributes: disk.AttrLegacyBIOSBootable,
		},
		{
			TypeGUID: disk.GUIDAndroidBoot,
			UniqueID: uuid.MustParse("22222222-3333-4444-5555-666666666666"),
			Start:    200,
			End:      299,
			Name:     "boot_a",
		},
		{
			TypeGUID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			UniqueID: uuid.MustParse("33333333-4444-5555-6666-777777777777"),
			Start:    300,
			End:      899,
			Name:     "vendor_custom",
		},
	}
}
