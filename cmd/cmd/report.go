// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/driver"
	"github.com/ostafen/blkpart/internal/env"
	"github.com/ostafen/blkpart/pkg/dfxml"
	utilos "github.com/ostafen/blkpart/pkg/util/os"
	"github.com/spf13/cobra"
)

func DefineReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <device>",
		Short: "Write a DFXML report of the volumes found on a device",
		Long: `The 'report' command resolves the partition table of a device or disk image
and writes one DFXML <volume> element per published volume, together with
the partition system summary and the execution environment.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunReport,
	}

	cmd.Flags().StringP("output", "o", "", "path of the report file (default: report_<timestamp>.xml)")
	cmd.Flags().BoolP("force", "f", false, "overwrite the report file if it exists")
	return cmd
}

func RunReport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if output == "" {
		output = fmt.Sprintf("report_%s.xml", GenSessionID())
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	drv, att, err := s.attach(args[0])
	if err != nil {
		return err
	}
	defer drv.Release(att.Name)

	f, err := utilos.CreateFile(output, force)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeReport(f, args[0], att); err != nil {
		return err
	}

	s.console.Infof("Report saved to: %s", absPath(output))
	return f.Close()
}

func writeReport(out io.Writer, source string, att *driver.Attachment) error {
	media := att.Device.Media()

	w := dfxml.NewDFXMLWriter(out)
	err := w.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: absPath(source),
			SectorSize:    media.BlockSize,
			ImageSize:     media.Size(),
			MediaID:       media.MediaID,
			ReadOnly:      media.ReadOnly,
		},
	})
	if err != nil {
		return err
	}

	if err := w.WritePartitionSystem(partitionSystem(att.Table)); err != nil {
		return err
	}

	for _, v := range att.Volumes {
		if err := w.WriteVolume(volumeObject(v, media.BlockSize)); err != nil {
			return err
		}
	}
	return w.Close()
}

func partitionSystem(t disk.Table) dfxml.PartitionSystem {
	ps := dfxml.PartitionSystem{
		Type:       strings.ToLower(t.Scheme.String()),
		HeaderLBA:  t.HeaderLBA,
		EntriesLBA: t.EntriesLBA,
	}

	switch t.Scheme {
	case disk.SchemeGPT:
		ps.DiskGUID = strings.ToUpper(t.DiskGUID.String())
	case disk.SchemeMBR:
		ps.DiskSignature = fmt.Sprintf("%08x", t.DiskSignature)
	default:
		if t.Err != nil {
			ps.Error = t.Err.Error()
		}
	}
	return ps
}

func volumeObject(v driver.Volume, blockSize uint32) dfxml.Volume {
	p := v.Partition
	offset := p.Start * uint64(blockSize)
	size := p.Size(blockSize)

	obj := dfxml.Volume{
		Offset:          offset,
		Name:            v.Name,
		PartitionIndex:  p.Index,
		PartitionOffset: offset,
		BlockSize:       blockSize,
		BlockCount:      p.Blocks(),
		StartLBA:        p.Start,
		EndLBA:          p.End,
		Type:            p.Type.String(),
		TypeGUID:        strings.ToUpper(p.TypeGUID.String()),
		PartUUID:        p.PartUUID,
		Label:           p.Name,
		Bootable:        p.Bootable,
		Valid:           p.Valid,
		ByteRuns: dfxml.ByteRuns{
			Runs: []dfxml.ByteRun{{
				Offset:    0,
				ImgOffset: offset,
				Length:    size,
			}},
		},
	}

	if p.PartUUID == "" {
		obj.UniqueID = strings.ToUpper(p.UniqueID.String())
	}
	if p.Attributes != 0 {
		obj.Attributes = fmt.Sprintf("0x%016x", p.Attributes)
	}
	return obj
}

// GenSessionID returns a timestamp of the form YYYYMMDD_HHMMSS.
func GenSessionID() string {
	return time.Now().Format("20060102_150405")
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
