//go:build linux
// +build linux

package fuse

import (
	"context"
	"testing"

	"bazil.org/fuse"
	"github.com/ostafen/blkpart/internal/disk/disktest"
	"github.com/ostafen/blkpart/internal/driver"
	"github.com/stretchr/testify/require"
)

func TestDeviceFS(t *testing.T) {
	img := disktest.NewGPT(512, 1024, disktest.AndroidLayout())
	copy(img.Block(200), "boot partition payload")

	att, err := driver.New(driver.Config{Strict: true}).Attach("mmc0", img.Transport(t))
	require.NoError(t, err)

	root, err := NewDeviceFS(att).Root()
	require.NoError(t, err)
	dir := root.(*Dir)

	ctx := context.Background()

	dirents, err := dir.ReadDirAll(ctx)
	require.NoError(t, err)

	names := make([]string, len(dirents))
	for i, e := range dirents {
		names[i] = e.Name
	}
	require.Equal(t, []string{"mmc0", "mmc0p1", "mmc0p2", "mmc0p3"}, names)

	_, err = dir.Lookup(ctx, "mmc0p9")
	require.ErrorIs(t, err, fuse.ENOENT)

	node, err := dir.Lookup(ctx, "mmc0p2")
	require.NoError(t, err)
	file := node.(File)

	var attr fuse.Attr
	require.NoError(t, file.Attr(ctx, &attr))
	require.Equal(t, uint64(100*512), attr.Size)

	resp := &fuse.ReadResponse{}
	require.NoError(t, file.Read(ctx, &fuse.ReadRequest{Offset: 5, Size: 9}, resp))
	require.Equal(t, "partition", string(resp.Data))

	// Reads are clamped to the end of the volume.
	require.NoError(t, file.Read(ctx, &fuse.ReadRequest{Offset: int64(attr.Size) - 10, Size: 100}, resp))
	require.Len(t, resp.Data, 10)

	require.NoError(t, file.Read(ctx, &fuse.ReadRequest{Offset: int64(attr.Size), Size: 100}, resp))
	require.Empty(t, resp.Data)
}
