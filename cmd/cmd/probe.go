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
	"strings"
	"text/tabwriter"

	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/driver"
	"github.com/ostafen/blkpart/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "probe <device>",
		Short:        "Print the partition layout of a device or disk image",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunProbe,
	}
}

func RunProbe(cmd *cobra.Command, args []string) error {
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

	return printLayout(cmd.OutOrStdout(), att)
}

func printLayout(w io.Writer, att *driver.Attachment) error {
	media := att.Device.Media()
	table := att.Table

	fmt.Fprintf(w, "Device:     %s\n", att.Name)
	fmt.Fprintf(w, "Size:       %s (%d blocks of %d bytes)\n",
		format.FormatBytes(int64(media.Size())), media.Blocks(), media.BlockSize)
	fmt.Fprintf(w, "Scheme:     %s\n", table.Scheme)

	switch table.Scheme {
	case disk.SchemeGPT:
		fmt.Fprintf(w, "Disk GUID:  %s\n", strings.ToUpper(table.DiskGUID.String()))
		fmt.Fprintf(w, "Header LBA: %d (entries at LBA %d)\n", table.HeaderLBA, table.EntriesLBA)
	case disk.SchemeMBR:
		fmt.Fprintf(w, "Signature:  %08x\n", table.DiskSignature)
	default:
		fmt.Fprintf(w, "Reason:     %v\n", table.Err)
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VOLUME\tSTART\tEND\tSIZE\tTYPE\tLABEL\tID\tFLAGS")
	for _, v := range att.Volumes {
		p := v.Partition
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			v.Name,
			p.Start,
			p.End,
			format.FormatBytes(int64(p.Size(media.BlockSize))),
			p.Type,
			p.Name,
			p.ID(),
			partitionFlags(p),
		)
	}
	return tw.Flush()
}

func partitionFlags(p disk.Partition) string {
	var flags []string
	if p.Bootable {
		flags = append(flags, "boot")
	}
	if !p.Valid {
		flags = append(flags, "invalid")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
