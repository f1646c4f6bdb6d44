package reader

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/transport"
	"github.com/stretchr/testify/require"
)

func newDeviceReader(t *testing.T, data []byte, blockSize uint32) *DeviceReader {
	t.Helper()

	tr, err := transport.NewMemory(data, transport.Options{BlockSize: blockSize, MediaID: 1, ReadOnly: true})
	require.NoError(t, err)
	return NewDeviceReader(blockio.NewRawDevice(tr))
}

func randomBuffer(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(42)).Read(b)
	return b
}

func TestDeviceReaderRandomSeek(t *testing.T) {
	const trials = 1000

	data := randomBuffer(1024 * 10)
	r := newDeviceReader(t, data, 512)
	require.Equal(t, int64(len(data)), r.Size())

	var buf [1500]byte

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < trials; i++ {
		offset := rng.Intn(len(data))
		readLen := rng.Intn(len(buf)) + 1

		_, err := r.Seek(int64(offset), io.SeekStart)
		require.NoError(t, err)

		n, err := r.Read(buf[:readLen])
		if err != nil {
			require.ErrorIs(t, err, io.EOF, "trial %d", i)
		}

		expected := data[offset:]
		if len(expected) > readLen {
			expected = expected[:readLen]
		}
		require.True(t, bytes.Equal(buf[:n], expected), "trial %d: mismatch at offset %d", i, offset)
	}
}

func TestDeviceReaderEOF(t *testing.T) {
	data := randomBuffer(4 * 4096)
	r := newDeviceReader(t, data, 4096)

	buf := make([]byte, 100)
	n, err := r.ReadAt(buf, int64(len(data))-40)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 40, n)
	require.Equal(t, data[len(data)-40:], buf[:n])

	_, err = r.ReadAt(buf, int64(len(data)))
	require.ErrorIs(t, err, io.EOF)

	_, err = r.ReadAt(buf, -1)
	require.Error(t, err)
}

func TestDeviceReaderLargeRead(t *testing.T) {
	data := randomBuffer(3*maxChunk + 512)
	r := newDeviceReader(t, data, 512)

	out, err := io.ReadAll(io.NewSectionReader(r, 100, r.Size()-100))
	require.NoError(t, err)
	require.Equal(t, data[100:], out)
}

func TestDeviceReaderSeek(t *testing.T) {
	r := newDeviceReader(t, randomBuffer(2048), 512)

	pos, err := r.Seek(-48, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(2000), pos)

	pos, err = r.Seek(8, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(2008), pos)

	_, err = r.Seek(-1, io.SeekStart)
	require.Error(t, err)

	_, err = r.Seek(0, 42)
	require.Error(t, err)
}
