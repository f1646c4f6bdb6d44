package checksum_test

import (
	"testing"

	"github.com/ostafen/blkpart/internal/checksum"
	"github.com/stretchr/testify/require"
)

func TestComputeKnownVectors(t *testing.T) {
	require.Equal(t, uint32(0), checksum.Compute(nil))
	require.Equal(t, uint32(0xCBF43926), checksum.Compute([]byte("123456789")))

	// 92 zero bytes: the size of a GPT header with every field cleared.
	require.Equal(t, uint32(0xC2B526E7), checksum.Compute(make([]byte, 92)))
}

func TestComputeIsPure(t *testing.T) {
	data := []byte("EFI PART some header bytes")
	require.Equal(t, checksum.Compute(data), checksum.Compute(data))
}

func TestComputeZeroed(t *testing.T) {
	data := make([]byte, 92)
	copy(data[16:20], []byte{0xde, 0xad, 0xbe, 0xef})

	require.Equal(t, checksum.Compute(make([]byte, 92)), checksum.ComputeZeroed(data, 16))
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data[16:20])
}
