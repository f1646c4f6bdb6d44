//go:build !windows

package mmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/blkpart/internal/mmap"
	"github.com/stretchr/testify/require"
)

func TestNewMmapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	data := make([]byte, 4096)
	copy(data[510:], []byte{0x55, 0xAA})
	require.NoError(t, os.WriteFile(path, data, 0644))

	m, err := mmap.NewMmapFile(path)
	require.NoError(t, err)
	require.Equal(t, data, m.Data)

	require.NoError(t, m.Close())
	require.Nil(t, m.Data)
	require.Nil(t, m.File)
}

func TestNewMmapFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := mmap.NewMmapFile(path)
	require.Error(t, err)
}
