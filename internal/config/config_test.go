package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/blkpart/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, config.Config{
		MediaID:     1,
		ReadOnly:    true,
		Strict:      true,
		DetectOrder: "gpt-first",
		LogLevel:    "INFO",
	}, *cfg)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blkpart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 4096\nstrict: false\nlog_level: DEBUG\n"), 0644))

	t.Setenv("BLKPART_MEDIA_ID", "9")
	t.Setenv("BLKPART_LOG_LEVEL", "WARN")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("read-only", true, "")
	flags.String("detect-order", "gpt-first", "")
	require.NoError(t, flags.Parse([]string{"--read-only=false", "--detect-order=mbr-first"}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, uint32(4096), cfg.BlockSize)
	require.False(t, cfg.Strict)
	require.Equal(t, uint32(9), cfg.MediaID)
	require.Equal(t, "WARN", cfg.LogLevel)
	require.False(t, cfg.ReadOnly)
	require.Equal(t, "mbr-first", cfg.DetectOrder)
}

func TestLoadInvalidBlockSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blkpart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 1000\n"), 0644))

	_, err := config.Load(path, nil)
	require.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
