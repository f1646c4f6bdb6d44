package disk_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/disk/disktest"
	"github.com/stretchr/testify/require"
)

func TestParseMBR(t *testing.T) {
	block := make([]byte, 512)
	disktest.WriteMBR(block, 0x12345678, []disktest.Slot{
		{Boot: 0x80, Type: disk.PartitionTypeLinuxFilesystem, Start: 2048, Total: 4096},
	})

	mbr, err := disk.ParseMBR(block)
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), mbr.ReadDiskSignature())
	require.Equal(t, uint16(disk.MBRSignature), mbr.ReadSignature())

	e := mbr.PartitionEntries[0]
	require.True(t, e.IsBootable())
	require.Equal(t, uint32(2048), e.ReadStartLBA())
	require.Equal(t, uint32(4096), e.ReadTotalSectors())

	_, err = disk.ParseMBR(block[:100])
	require.ErrorIs(t, err, disk.ErrFormat)

	block[0x1FF] = 0
	_, err = disk.ParseMBR(block)
	require.ErrorIs(t, err, disk.ErrFormat)
}

func TestReadMBR(t *testing.T) {
	dev := disktest.NewMBR(512, 10000, 0xDEADBEEF, []disktest.Slot{
		{Boot: 0x80, Type: disk.PartitionTypeEFISystemPartition, Start: 100, Total: 100},
		{Type: disk.PartitionTypeEmpty},
		{Type: disk.PartitionTypeExtendedLBA, Start: 300, Total: 1000},
		{Type: disk.PartitionTypeAndroidData, Start: 2000, Total: 8000},
	}).Device(t)

	partitions, err := disk.ReadMBR(dev, nil)
	require.NoError(t, err)
	require.Len(t, partitions, 2)

	p := partitions[0]
	require.Equal(t, 0, p.Index)
	require.Equal(t, uint64(100), p.Start)
	require.Equal(t, uint64(199), p.End)
	require.Equal(t, disk.TypeEFISystem, p.Type)
	require.True(t, p.Bootable)
	require.True(t, p.Valid)
	require.Equal(t, "deadbeef-01", p.PartUUID)
	require.Equal(t, "deadbeef-01", p.ID())
	require.Equal(t, uuid.MustParse("000000ef-1234-5678-9988-776655443322"), p.TypeGUID)

	p = partitions[1]
	require.Equal(t, 3, p.Index)
	require.Equal(t, uint64(2000), p.Start)
	require.Equal(t, uint64(9999), p.End)
	require.Equal(t, disk.TypeAndroidUserdata, p.Type)
	require.Equal(t, "deadbeef-04", p.PartUUID)
}

func TestReadMBRSkipsUnusableSlots(t *testing.T) {
	dev := disktest.NewMBR(512, 1000, 0xDEADBEEF, []disktest.Slot{
		{Type: disk.PartitionTypeLinuxFilesystem, Start: 10, Total: 0},
		{Type: disk.PartitionTypeLinuxFilesystem, Start: 900, Total: 101},
		{Type: disk.PartitionTypeExtendedCHS, Start: 10, Total: 10},
	}).Device(t)

	_, err := disk.ReadMBR(dev, nil)
	require.ErrorIs(t, err, disk.ErrNoPartitions)
}

func TestReadMBRProtective(t *testing.T) {
	dev := disktest.NewMBR(512, 1000, 0xDEADBEEF, []disktest.Slot{
		{Type: disk.PartitionTypeGPTProtective, Start: 1, Total: 999},
	}).Device(t)
	partitions, err := disk.ReadMBR(dev, nil)
	require.ErrorIs(t, err, disk.ErrProtectiveMBR)
	require.Empty(t, partitions)

	// A protective entry anywhere discards the slots seen before it.
	dev = disktest.NewMBR(512, 1000, 0xDEADBEEF, []disktest.Slot{
		{Type: disk.PartitionTypeLinuxFilesystem, Start: 10, Total: 10},
		{Type: disk.PartitionTypeGPTProtective, Start: 1, Total: 999},
	}).Device(t)
	partitions, err = disk.ReadMBR(dev, nil)
	require.ErrorIs(t, err, disk.ErrProtectiveMBR)
	require.Empty(t, partitions)
}

func TestReadMBRNoSignature(t *testing.T) {
	img := disktest.NewGPT(512, 1024, nil)
	img.Block(0)[0x1FE] = 0

	_, err := disk.ReadMBR(img.Device(t), nil)
	require.ErrorIs(t, err, disk.ErrFormat)
}

func TestClassifyMBR(t *testing.T) {
	tests := map[disk.MBRPartition]disk.PartitionType{
		disk.PartitionTypeEFISystemPartition: disk.TypeEFISystem,
		disk.PartitionTypeLinuxFilesystem:    disk.TypeLinuxFilesystem,
		disk.PartitionTypeLinuxLVM:           disk.TypeLinuxLVM,
		disk.PartitionTypeLinuxSwap:          disk.TypeLinuxSwap,
		disk.PartitionTypeAndroidBoot:        disk.TypeAndroidBoot,
		disk.PartitionTypeAndroidSystem:      disk.TypeAndroidSystem,
		disk.PartitionTypeAndroidData:        disk.TypeAndroidUserdata,
		disk.PartitionTypeAndroidCache:       disk.TypeAndroidCache,
		disk.PartitionTypeFAT32LBA:           disk.TypeLegacyMBR,
		disk.MBRPartition(0x42):              disk.TypeLegacyMBR,
	}

	for id, want := range tests {
		require.Equal(t, want, disk.ClassifyMBR(id), id.String())
	}
}
