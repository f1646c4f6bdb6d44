package dfxml

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer

	w := NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(DFXMLHeader{
		XmlOutput: XmlOutputVersion,
		Metadata:  DefaultMetadata,
		Creator: Creator{
			Package:              "blkpart",
			Version:              "test",
			ExecutionEnvironment: GetExecEnv(),
		},
		Source: Source{ImageFilename: "disk.img", SectorSize: 512, ImageSize: 1 << 20, MediaID: 1},
	}))
	require.NoError(t, w.WritePartitionSystem(PartitionSystem{Type: "gpt", DiskGUID: "A5F2B9C0-1D3E-4F50-8A6B-7C8D9E0F1A2B"}))
	require.NoError(t, w.WriteVolume(Volume{
		Offset:          100 * 512,
		Name:            "mmc0p1",
		PartitionOffset: 100 * 512,
		BlockSize:       512,
		BlockCount:      100,
		StartLBA:        100,
		EndLBA:          199,
		Type:            "EFI system",
		Label:           "esp",
		Valid:           true,
		ByteRuns:        ByteRuns{Runs: []ByteRun{{ImgOffset: 100 * 512, Length: 100 * 512}}},
	}))
	require.NoError(t, w.Close())

	type docMetadata struct {
		Type string `xml:"type"`
	}

	var doc struct {
		XMLName  xml.Name        `xml:"dfxml"`
		Version  string          `xml:"xmloutputversion,attr"`
		Metadata docMetadata     `xml:"metadata"`
		Source   Source          `xml:"source"`
		PartSys  PartitionSystem `xml:"partition_system"`
		Volumes  []Volume        `xml:"volume"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))

	require.Equal(t, XmlOutputVersion, doc.Version)
	require.Equal(t, "Partition Report", doc.Metadata.Type)
	require.Equal(t, uint32(512), doc.Source.SectorSize)
	require.Equal(t, "gpt", doc.PartSys.Type)
	require.Len(t, doc.Volumes, 1)
	require.Equal(t, "esp", doc.Volumes[0].Label)
	require.Equal(t, uint64(199), doc.Volumes[0].EndLBA)
	require.Equal(t, uint64(51200), doc.Volumes[0].ByteRuns.Runs[0].Length)
}
