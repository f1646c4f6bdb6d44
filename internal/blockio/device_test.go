package blockio_test

import (
	"errors"
	"testing"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/stretchr/testify/require"
)

type call struct {
	op      string
	mediaID uint32
	lba     uint64
	size    int
}

// recordingTransport records every request that reaches the medium.
type recordingTransport struct {
	media blockio.Media
	calls []call
	err   error
}

func newRecordingTransport(blocks uint64, readOnly bool) *recordingTransport {
	return &recordingTransport{
		media: blockio.Media{
			MediaID:   1,
			BlockSize: 512,
			LastBlock: blocks - 1,
			ReadOnly:  readOnly,
		},
	}
}

func (t *recordingTransport) Media() blockio.Media { return t.media }

func (t *recordingTransport) ReadBlocks(mediaID uint32, lba uint64, buf []byte) error {
	t.calls = append(t.calls, call{"read", mediaID, lba, len(buf)})
	return t.err
}

func (t *recordingTransport) WriteBlocks(mediaID uint32, lba uint64, buf []byte) error {
	t.calls = append(t.calls, call{"write", mediaID, lba, len(buf)})
	return t.err
}

func (t *recordingTransport) Flush() error {
	t.calls = append(t.calls, call{op: "flush"})
	return t.err
}

func (t *recordingTransport) Reset(extended bool) error {
	t.calls = append(t.calls, call{op: "reset"})
	return t.err
}

func TestRawDeviceChecks(t *testing.T) {
	tr := newRecordingTransport(1000, false)
	dev := blockio.NewRawDevice(tr)

	buf := make([]byte, 1024)
	require.NoError(t, dev.ReadBlocks(1, 998, buf))
	require.Equal(t, []call{{"read", 1, 998, 1024}}, tr.calls)

	require.ErrorIs(t, dev.ReadBlocks(2, 0, buf), blockio.ErrMediaChanged)
	require.ErrorIs(t, dev.ReadBlocks(1, 0, buf[:100]), blockio.ErrBadBufferSize)
	require.ErrorIs(t, dev.ReadBlocks(1, 1000, buf), blockio.ErrInvalidParameter)
	require.ErrorIs(t, dev.ReadBlocks(1, 999, buf), blockio.ErrInvalidParameter)
	require.ErrorIs(t, dev.WriteBlocks(1, 1000, buf), blockio.ErrInvalidParameter)
	require.Len(t, tr.calls, 1)
}

func TestRawDeviceTransportError(t *testing.T) {
	tr := newRecordingTransport(10, false)
	tr.err = errors.New("controller timeout")
	dev := blockio.NewRawDevice(tr)

	err := dev.ReadBlocks(1, 0, make([]byte, 512))
	require.ErrorIs(t, err, blockio.ErrDevice)
	require.ErrorContains(t, err, "controller timeout")

	require.ErrorIs(t, dev.FlushBlocks(), blockio.ErrDevice)
}

func TestZeroLengthSkipsTransport(t *testing.T) {
	tr := newRecordingTransport(200, false)
	raw := blockio.NewRawDevice(tr)
	part, err := blockio.NewPartitionDevice(raw, 100, 199)
	require.NoError(t, err)

	for _, dev := range []blockio.Device{raw, part} {
		require.NoError(t, dev.ReadBlocks(1, 0, nil))
		require.NoError(t, dev.WriteBlocks(1, 0, []byte{}))
	}
	require.Empty(t, tr.calls)
}

func TestPartitionTranslation(t *testing.T) {
	tr := newRecordingTransport(1000, false)
	raw := blockio.NewRawDevice(tr)

	part, err := blockio.NewPartitionDevice(raw, 100, 199)
	require.NoError(t, err)

	media := part.Media()
	require.Equal(t, uint64(99), media.LastBlock)
	require.Equal(t, uint32(512), media.BlockSize)
	require.Equal(t, uint32(1), media.MediaID)
	require.True(t, media.LogicalPartition)
	require.Equal(t, uint64(100), part.Start())

	buf := make([]byte, 512)
	require.NoError(t, part.ReadBlocks(1, 0, buf))
	require.Equal(t, call{"read", 1, 100, 512}, tr.calls[0])

	require.NoError(t, part.WriteBlocks(1, 99, buf))
	require.Equal(t, call{"write", 1, 199, 512}, tr.calls[1])

	require.ErrorIs(t, part.ReadBlocks(1, 101, buf), blockio.ErrInvalidParameter)
	require.ErrorIs(t, part.ReadBlocks(1, 99, make([]byte, 1024)), blockio.ErrInvalidParameter)
	require.ErrorIs(t, part.ReadBlocks(5, 0, buf), blockio.ErrMediaChanged)
	require.Len(t, tr.calls, 2)

	require.NoError(t, part.FlushBlocks())
	require.NoError(t, part.Reset(true))
	require.Equal(t, "flush", tr.calls[2].op)
	require.Equal(t, "reset", tr.calls[3].op)
}

func TestNestedPartitionTranslation(t *testing.T) {
	tr := newRecordingTransport(1000, false)
	raw := blockio.NewRawDevice(tr)

	outer, err := blockio.NewPartitionDevice(raw, 100, 499)
	require.NoError(t, err)
	inner, err := blockio.NewPartitionDevice(outer, 50, 59)
	require.NoError(t, err)

	require.NoError(t, inner.ReadBlocks(1, 9, make([]byte, 512)))
	require.Equal(t, uint64(159), tr.calls[0].lba)
}

func TestPartitionOutsideParent(t *testing.T) {
	raw := blockio.NewRawDevice(newRecordingTransport(100, false))

	_, err := blockio.NewPartitionDevice(raw, 50, 100)
	require.ErrorIs(t, err, blockio.ErrInvalidParameter)

	_, err = blockio.NewPartitionDevice(raw, 60, 59)
	require.ErrorIs(t, err, blockio.ErrInvalidParameter)
}

func TestWriteProtected(t *testing.T) {
	tr := newRecordingTransport(1000, true)
	raw := blockio.NewRawDevice(tr)
	part, err := blockio.NewPartitionDevice(raw, 10, 19)
	require.NoError(t, err)
	require.True(t, part.Media().ReadOnly)

	for _, dev := range []blockio.Device{raw, part} {
		require.ErrorIs(t, dev.WriteBlocks(1, 0, make([]byte, 512)), blockio.ErrWriteProtected)
		require.ErrorIs(t, dev.WriteBlocks(1, 5000, make([]byte, 512)), blockio.ErrWriteProtected)
		require.ErrorIs(t, dev.WriteBlocks(9, 0, make([]byte, 3)), blockio.ErrWriteProtected)
	}
	require.Empty(t, tr.calls)
}

func TestMediaHelpers(t *testing.T) {
	m := blockio.Media{BlockSize: 512, LastBlock: 99}
	require.Equal(t, uint64(100), m.Blocks())
	require.Equal(t, uint64(51200), m.Size())

	require.Equal(t, uint64(0), blockio.BlocksFor(0, 512))
	require.Equal(t, uint64(1), blockio.BlocksFor(1, 512))
	require.Equal(t, uint64(32), blockio.BlocksFor(128*128, 512))

	require.True(t, blockio.IsPowerOfTwo(4096))
	require.False(t, blockio.IsPowerOfTwo(0))
	require.False(t, blockio.IsPowerOfTwo(520))
}
