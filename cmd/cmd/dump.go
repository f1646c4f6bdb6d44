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

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/pkg/util/format"
	utilos "github.com/ostafen/blkpart/pkg/util/os"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func DefineDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <device>",
		Short: "Copy blocks of a device or of one of its volumes to a file",
		Long: `The 'dump' command copies a block range through the logical device router.
Without --partition the raw device is read; with --partition N the LBAs are
relative to the N-th partition (one-based, as in the volume names).`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunDump,
	}

	cmd.Flags().IntP("partition", "p", 0, "one-based partition number to read from (0 reads the raw device)")
	cmd.Flags().Uint64("lba", 0, "first block to copy")
	cmd.Flags().Uint64("count", 0, "number of blocks to copy (0 copies up to the last block)")
	cmd.Flags().String("chunk-size", "1MB", "size of a single read request")
	cmd.Flags().StringP("output", "o", "", "path of the output file")
	cmd.Flags().BoolP("force", "f", false, "overwrite the output file if it exists")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func RunDump(cmd *cobra.Command, args []string) error {
	partition, _ := cmd.Flags().GetInt("partition")
	lba, _ := cmd.Flags().GetUint64("lba")
	count, _ := cmd.Flags().GetUint64("count")
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	chunkSize, err := getBytes(cmd, "chunk-size")
	if err != nil {
		return err
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

	dev := att.Device
	name := att.Name
	if partition > 0 {
		v, ok := att.Volume(partition)
		if !ok {
			return fmt.Errorf("partition %d not found on %s", partition, att.Name)
		}
		dev, name = v.Device, v.Name
	}

	media := dev.Media()
	if lba > media.LastBlock {
		return fmt.Errorf("LBA %d is past the last block %d of %s", lba, media.LastBlock, name)
	}
	if count == 0 {
		count = media.LastBlock - lba + 1
	}

	f, err := utilos.CreateFile(output, force)
	if err != nil {
		return err
	}
	defer f.Close()

	var progress io.Writer = io.Discard
	if !noProgress {
		bar := progressbar.NewOptions64(int64(count*uint64(media.BlockSize)),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Dumping "+name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmd.ErrOrStderr()) }),
		)
		defer bar.Finish()
		progress = bar
	}

	if err := dumpBlocks(dev, lba, count, int(chunkSize), io.MultiWriter(f, progress)); err != nil {
		return err
	}

	s.console.Infof("Copied %d blocks of %s to %s", count, name, absPath(output))
	return f.Close()
}

// dumpBlocks copies count blocks starting at lba to w, reading at most
// chunkSize bytes per request.
func dumpBlocks(dev blockio.Device, lba, count uint64, chunkSize int, w io.Writer) error {
	media := dev.Media()
	bs := uint64(media.BlockSize)

	chunkBlocks := uint64(chunkSize) / bs
	if chunkBlocks == 0 {
		chunkBlocks = 1
	}

	buf := make([]byte, min(chunkBlocks, count)*bs)
	for done := uint64(0); done < count; {
		n := min(chunkBlocks, count-done)
		chunk := buf[:n*bs]

		if err := dev.ReadBlocks(media.MediaID, lba+done, chunk); err != nil {
			return fmt.Errorf("reading LBA %d: %w", lba+done, err)
		}

		if _, err := w.Write(chunk); err != nil {
			return err
		}
		done += n
	}
	return nil
}

func getBytes(cmd *cobra.Command, name string) (int64, error) {
	s, _ := cmd.Flags().GetString(name)

	v, err := format.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}
