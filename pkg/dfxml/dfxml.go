package dfxml

import (
	"encoding/xml"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"time"
)

const XmlOutputVersion = "1.0"

var DefaultMetadata = Metadata{
	Xmlns:    "http://www.forensicswiki.org/wiki/Category:Digital_Forensics_XML",
	XmlnsXsi: "http://www.w3.org/2001/XMLSchema-instance",
	XmlnsDC:  "http://purl.org/dc/elements/1.1/",
	Type:     "Partition Report",
}

// DFXMLHeader represents the root element of a DFXML document.
type DFXMLHeader struct {
	XMLName   xml.Name `xml:"dfxml"`
	XmlOutput string   `xml:"xmloutputversion,attr,omitempty"`
	Metadata  Metadata `xml:"metadata"`
	Creator   Creator  `xml:"creator"`
	Source    Source   `xml:"source"`
}

type Metadata struct {
	Xmlns    string `xml:"xmlns,attr"`
	XmlnsXsi string `xml:"xmlns:xsi,attr"`
	XmlnsDC  string `xml:"xmlns:dc,attr"`
	Type     string `xml:"dc:type"`
}

// Creator describes the software and environment used to generate the report.
type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Source describes the probed medium.
type Source struct {
	ImageFilename string `xml:"image_filename"`
	SectorSize    uint32 `xml:"sectorsize"`
	ImageSize     uint64 `xml:"image_size"`
	MediaID       uint32 `xml:"media_id"`
	ReadOnly      bool   `xml:"read_only"`
}

// PartitionSystem summarizes the partition table found on the source.
type PartitionSystem struct {
	XMLName       xml.Name `xml:"partition_system"`
	Type          string   `xml:"pstype_str"`
	DiskGUID      string   `xml:"disk_guid,omitempty"`
	DiskSignature string   `xml:"disk_signature,omitempty"`
	HeaderLBA     uint64   `xml:"header_lba,omitempty"`
	EntriesLBA    uint64   `xml:"entries_lba,omitempty"`
	Error         string   `xml:"error,omitempty"`
}

// Volume is a published logical device together with the partition record
// backing it.
type Volume struct {
	XMLName         xml.Name `xml:"volume"`
	Offset          uint64   `xml:"offset,attr"` // Byte offset of the volume within the source.
	Name            string   `xml:"name"`
	PartitionIndex  int      `xml:"partition_index"`
	PartitionOffset uint64   `xml:"partition_offset"`
	BlockSize       uint32   `xml:"block_size"`
	BlockCount      uint64   `xml:"block_count"`
	StartLBA        uint64   `xml:"start_lba"`
	EndLBA          uint64   `xml:"end_lba"`
	Type            string   `xml:"ptype_str"`
	TypeGUID        string   `xml:"type_guid"`
	UniqueID        string   `xml:"unique_guid,omitempty"`
	PartUUID        string   `xml:"partuuid,omitempty"`
	Label           string   `xml:"label,omitempty"`
	Attributes      string   `xml:"attributes,omitempty"`
	Bootable        bool     `xml:"bootable"`
	Valid           bool     `xml:"valid"`
	ByteRuns        ByteRuns `xml:"byte_runs"`
}

type ByteRuns struct {
	Runs []ByteRun `xml:"byte_run"`
}

// ByteRun describes a contiguous extent of the source.
type ByteRun struct {
	Offset    uint64 `xml:"offset,attr"`     // Logical offset within the volume.
	ImgOffset uint64 `xml:"img_offset,attr"` // Physical offset within the source.
	Length    uint64 `xml:"len,attr"`
}

// GetExecEnv retrieves runtime information to populate the ExecEnv struct.
func GetExecEnv() ExecEnv {
	release, version := kernelInfo()

	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := 0
	if u, err := user.Current(); err == nil {
		if n, err := strconv.Atoi(u.Uid); err == nil {
			uid = n
		}
	}

	return ExecEnv{
		OS:      runtime.GOOS,
		Release: release,
		Version: version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
}
