package metrics_test

import (
	"strings"
	"testing"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/metrics"
	"github.com/ostafen/blkpart/internal/transport"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedDevice(t *testing.T) {
	tr, err := transport.NewMemory(make([]byte, 16*512), transport.Options{MediaID: 1, ReadOnly: true})
	require.NoError(t, err)

	c := metrics.NewCollector()
	dev := c.Instrument("mmc0", blockio.NewRawDevice(tr))

	buf := make([]byte, 1024)
	require.NoError(t, dev.ReadBlocks(1, 0, buf))
	require.NoError(t, dev.ReadBlocks(1, 2, buf))
	require.ErrorIs(t, dev.ReadBlocks(2, 0, buf), blockio.ErrMediaChanged)
	require.ErrorIs(t, dev.WriteBlocks(1, 0, buf), blockio.ErrWriteProtected)

	expected := `
# HELP blkpart_bytes_total Bytes transferred by device and operation.
# TYPE blkpart_bytes_total counter
blkpart_bytes_total{device="mmc0",op="read"} 2048
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "blkpart_bytes_total"))

	count, err := testutil.GatherAndCount(c.Registry(), "blkpart_requests_total")
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestObserveDetection(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveDetection("mmc0", "gpt", 4)
	c.ObserveDetection("mmc1", "none", 0)

	count, err := testutil.GatherAndCount(c.Registry(), "blkpart_partitions")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	c.Forget("mmc1")
	count, err = testutil.GatherAndCount(c.Registry(), "blkpart_partitions")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
