package cmd

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/blkpart/internal/disk/disktest"
	"github.com/ostafen/blkpart/pkg/dfxml"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, img *disktest.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sd.img")
	require.NoError(t, os.WriteFile(path, img.Data, 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--log-level", "ERROR"))

	err := root.Execute()
	return out.String(), err
}

func TestProbeGPT(t *testing.T) {
	path := writeImage(t, disktest.NewGPT(512, 1024, disktest.AndroidLayout()))

	out, err := run(t, "probe", path)
	require.NoError(t, err)
	require.Contains(t, out, "Scheme:     gpt")
	require.Contains(t, out, "A5F2B9C0-1D3E-4F50-8A6B-7C8D9E0F1A2B")
	require.Contains(t, out, "sdp1")
	require.Contains(t, out, "boot_a")
	require.Contains(t, out, "vendor_custom")
}

func TestProbeMBRFirst(t *testing.T) {
	img := disktest.NewMBR(512, 2048, 0xCAFEBABE, []disktest.Slot{
		{Boot: 0x80, Type: 0x83, Start: 64, Total: 1000},
	})
	path := writeImage(t, img)

	out, err := run(t, "probe", path, "--detect-order", "mbr-first")
	require.NoError(t, err)
	require.Contains(t, out, "Scheme:     mbr")
	require.Contains(t, out, "cafebabe-01")
	require.Contains(t, out, "boot")
}

func TestProbeInvalidOrder(t *testing.T) {
	path := writeImage(t, disktest.NewGPT(512, 1024, nil))

	_, err := run(t, "probe", path, "--detect-order", "random")
	require.Error(t, err)
}

func TestReport(t *testing.T) {
	path := writeImage(t, disktest.NewGPT(512, 1024, disktest.AndroidLayout()))
	output := filepath.Join(t.TempDir(), "report.xml")

	_, err := run(t, "report", path, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var doc struct {
		PartSys dfxml.PartitionSystem `xml:"partition_system"`
		Volumes []dfxml.Volume        `xml:"volume"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Equal(t, "gpt", doc.PartSys.Type)
	require.Len(t, doc.Volumes, 3)
	require.Equal(t, "sdp1", doc.Volumes[0].Name)
	require.Equal(t, uint64(100*512), doc.Volumes[0].PartitionOffset)
	require.True(t, doc.Volumes[0].Bootable)
	require.Equal(t, "vendor_custom", doc.Volumes[2].Label)

	// Existing reports are kept unless forced.
	_, err = run(t, "report", path, "-o", output)
	require.Error(t, err)

	_, err = run(t, "report", path, "-o", output, "--force")
	require.NoError(t, err)
}

func TestDumpPartition(t *testing.T) {
	img := disktest.NewGPT(512, 1024, disktest.AndroidLayout())
	for lba := uint64(200); lba < 300; lba++ {
		b := img.Block(lba)
		for i := range b {
			b[i] = byte(lba)
		}
	}
	path := writeImage(t, img)
	output := filepath.Join(t.TempDir(), "boot.img")

	_, err := run(t, "dump", path, "--partition", "2", "--lba", "10", "--count", "20",
		"--chunk-size", "4K", "--no-progress", "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, img.Data[210*512:230*512], data)
}

func TestDumpRawDevice(t *testing.T) {
	img := disktest.NewGPT(512, 1024, nil)
	path := writeImage(t, img)
	output := filepath.Join(t.TempDir(), "raw.img")

	_, err := run(t, "dump", path, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, img.Data, data)
}

func TestDumpOutOfRange(t *testing.T) {
	path := writeImage(t, disktest.NewGPT(512, 1024, disktest.AndroidLayout()))
	dir := t.TempDir()

	_, err := run(t, "dump", path, "--partition", "1", "--lba", "90", "--count", "20",
		"--no-progress", "-o", filepath.Join(dir, "a.img"))
	require.Error(t, err)

	_, err = run(t, "dump", path, "--partition", "7", "--no-progress", "-o", filepath.Join(dir, "b.img"))
	require.Error(t, err)
}
