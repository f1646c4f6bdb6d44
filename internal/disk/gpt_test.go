package disk_test

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/disk/disktest"
	"github.com/stretchr/testify/require"
)

func TestReadGPTHeader(t *testing.T) {
	img := disktest.NewGPT(512, 1024, disktest.AndroidLayout())
	dev := img.Device(t)

	hdr, err := disk.ReadGPTHeader(dev, disk.PrimaryHeaderLBA)
	require.NoError(t, err)
	require.Equal(t, uint64(1), hdr.MyLBA)
	require.Equal(t, img.LastBlock(), hdr.AlternateLBA)
	require.Equal(t, img.FirstUsable(), hdr.FirstUsableLBA)
	require.Equal(t, img.LastUsable(), hdr.LastUsableLBA)
	require.Equal(t, disktest.DiskGUID, hdr.DiskGUID.UUID())
	require.Equal(t, uint32(disktest.EntryCount), hdr.NumberOfPartitionEntries)
	require.True(t, hdr.IsPrimary())

	backup, err := disk.ReadGPTHeader(dev, img.LastBlock())
	require.NoError(t, err)
	require.False(t, backup.IsPrimary())
	require.Equal(t, img.BackupEntriesLBA(), backup.PartitionEntryLBA)
}

func TestReadGPTHeaderValidation(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(h []byte)
		err     error
	}{
		{
			name:    "signature",
			corrupt: func(h []byte) { copy(h[0:8], "EFI JUNK") },
			err:     disk.ErrFormat,
		},
		{
			name:    "revision",
			corrupt: func(h []byte) { binary.LittleEndian.PutUint32(h[8:], 0x00020000) },
			err:     disk.ErrUnsupportedVersion,
		},
		{
			name:    "header size too small",
			corrupt: func(h []byte) { binary.LittleEndian.PutUint32(h[12:], 91) },
			err:     disk.ErrFormat,
		},
		{
			name:    "header size larger than block",
			corrupt: func(h []byte) { binary.LittleEndian.PutUint32(h[12:], 513) },
			err:     disk.ErrFormat,
		},
		{
			name:    "checksummed byte",
			corrupt: func(h []byte) { h[40] ^= 0xFF },
			err:     disk.ErrIntegrity,
		},
		{
			name:    "stored checksum",
			corrupt: func(h []byte) { h[16] ^= 0x01 },
			err:     disk.ErrIntegrity,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := disktest.NewGPT(512, 1024, disktest.AndroidLayout())
			tc.corrupt(img.Block(1))

			_, err := disk.ReadGPTHeader(img.Device(t), disk.PrimaryHeaderLBA)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestReadGPTHeaderWrongLocation(t *testing.T) {
	img := disktest.NewGPT(512, 1024, nil)
	copy(img.Block(5), img.Block(1))

	_, err := disk.ReadGPTHeader(img.Device(t), 5)
	require.ErrorIs(t, err, disk.ErrFormat)
}

func TestReadGPTHeaderDeviceError(t *testing.T) {
	img := disktest.NewGPT(512, 1024, nil)

	_, err := disk.ReadGPTHeader(img.Device(t), img.Blocks)
	require.ErrorIs(t, err, blockio.ErrDevice)
	require.ErrorIs(t, err, blockio.ErrInvalidParameter)
}

func TestReadGPTEntries(t *testing.T) {
	for _, bs := range []uint32{512, 4096} {
		img := disktest.NewGPT(bs, 1024, disktest.AndroidLayout())
		dev := img.Device(t)

		hdr, err := disk.ReadGPTHeader(dev, disk.PrimaryHeaderLBA)
		require.NoError(t, err)

		entries, err := disk.ReadGPTEntries(dev, hdr, hdr.PartitionEntryLBA)
		require.NoError(t, err)
		require.Len(t, entries, disktest.EntryCount)

		require.True(t, entries[0].IsUsed())
		require.Equal(t, disk.GUIDEFISystem, entries[0].TypeGUID.UUID())
		require.Equal(t, uint64(100), entries[0].StartingLBA)
		require.Equal(t, uint64(199), entries[0].EndingLBA)
		require.False(t, entries[3].IsUsed())
	}
}

func TestReadGPTEntriesChecksum(t *testing.T) {
	img := disktest.NewGPT(512, 1024, disktest.AndroidLayout())
	dev := img.Device(t)

	hdr, err := disk.ReadGPTHeader(dev, disk.PrimaryHeaderLBA)
	require.NoError(t, err)

	img.Block(2)[33] ^= 0xFF

	_, err = disk.ReadGPTEntries(dev, hdr, hdr.PartitionEntryLBA)
	require.ErrorIs(t, err, disk.ErrIntegrity)

	entries, err := disk.ReadGPTEntries(dev, hdr, img.BackupEntriesLBA())
	require.NoError(t, err)
	require.Equal(t, uint64(200), entries[1].StartingLBA)
}

func TestReadGPTEntriesGeometry(t *testing.T) {
	img := disktest.NewGPT(512, 1024, disktest.AndroidLayout())
	dev := img.Device(t)

	hdr, err := disk.ReadGPTHeader(dev, disk.PrimaryHeaderLBA)
	require.NoError(t, err)

	bad := *hdr
	bad.SizeOfPartitionEntry = 64
	_, err = disk.ReadGPTEntries(dev, &bad, bad.PartitionEntryLBA)
	require.ErrorIs(t, err, disk.ErrFormat)

	bad = *hdr
	bad.NumberOfPartitionEntries = 0
	_, err = disk.ReadGPTEntries(dev, &bad, bad.PartitionEntryLBA)
	require.ErrorIs(t, err, disk.ErrFormat)

	_, err = disk.ReadGPTEntries(dev, hdr, img.LastBlock()-1)
	require.ErrorIs(t, err, disk.ErrFormat)
}

func TestAlternateEntryLBA(t *testing.T) {
	img := disktest.NewGPT(512, 1024, nil)
	dev := img.Device(t)

	primary, err := disk.ReadGPTHeader(dev, disk.PrimaryHeaderLBA)
	require.NoError(t, err)

	lba, ok := primary.AlternateEntryLBA(512)
	require.True(t, ok)
	require.Equal(t, img.BackupEntriesLBA(), lba)

	backup, err := disk.ReadGPTHeader(dev, img.LastBlock())
	require.NoError(t, err)

	lba, ok = backup.AlternateEntryLBA(512)
	require.True(t, ok)
	require.Equal(t, img.PrimaryEntriesLBA(), lba)
}

func TestGPTNameAndAttributes(t *testing.T) {
	parts := disktest.AndroidLayout()
	parts[1].Name = "système_α"

	img := disktest.NewGPT(512, 1024, parts)
	table := disk.NewResolver(disk.Options{Strict: true}).Detect(img.Device(t))
	require.Equal(t, disk.SchemeGPT, table.Scheme)

	require.Equal(t, "esp", table.Partitions[0].Name)
	require.True(t, table.Partitions[0].Bootable)
	require.Equal(t, "système_α", table.Partitions[1].Name)
	require.False(t, table.Partitions[1].Bootable)
}

func TestGUIDConversion(t *testing.T) {
	g := disk.GUIDFromUUID(disk.GUIDEFISystem)
	require.Equal(t, disk.GUID{
		0x28, 0x73, 0x2A, 0xC1, 0x1F, 0xF8, 0xD2, 0x11,
		0xBA, 0x4B, 0x00, 0xA0, 0xC9, 0x3E, 0xC9, 0x3B,
	}, g)
	require.Equal(t, disk.GUIDEFISystem, g.UUID())
	require.Equal(t, "C12A7328-F81F-11D2-BA4B-00A0C93EC93B", g.String())

	require.True(t, disk.GUID{}.IsZero())
	require.False(t, g.IsZero())
	require.Equal(t, uuid.Nil, disk.GUID{}.UUID())
}

func TestClassifyGPT(t *testing.T) {
	require.Equal(t, disk.TypeEFISystem, disk.ClassifyGPT(disk.GUIDEFISystem))
	require.Equal(t, disk.TypeAndroidUserdata, disk.ClassifyGPT(disk.GUIDAndroidUserdata))
	require.Equal(t, disk.TypeAndroidMetadata, disk.ClassifyGPT(disk.GUIDAndroidMetadata))
	require.Equal(t, disk.TypeOther, disk.ClassifyGPT(uuid.New()))
	require.Equal(t, "Android recovery", disk.TypeAndroidRecovery.String())
}
