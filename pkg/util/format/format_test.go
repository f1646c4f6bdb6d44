package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512B", FormatBytes(512))
	require.Equal(t, "4KB", FormatBytes(4096))
	require.Equal(t, "1.50MB", FormatBytes(3*MB/2))
	require.Equal(t, "2GB", FormatBytes(2*GB))
}

func TestParseBytes(t *testing.T) {
	tests := map[string]int64{
		"512":   512,
		"512B":  512,
		"4K":    4 * KB,
		"4kb":   4 * KB,
		" 1MB ": MB,
		"1.5MB": 3 * MB / 2,
		"2G":    2 * GB,
		"1TB":   TB,
	}

	for in, want := range tests {
		got, err := ParseBytes(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "MB", "-1K", "abc"} {
		_, err := ParseBytes(in)
		require.Error(t, err, in)
	}
}
