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
	"github.com/ostafen/blkpart/internal/env"
	"github.com/spf13/cobra"
)

func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     env.AppName,
		Short:   env.AppName + " - partition table resolver for block media",
		Version: env.Version,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path of the config file (default: ./blkpart.yaml or $HOME/.config/blkpart/blkpart.yaml)")
	flags.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("log-file", "", "write library logs to this file instead of stderr")
	flags.Uint32("block-size", 0, "logical block size in bytes (0 probes the device, 512 for images)")
	flags.Uint32("media-id", 1, "media identifier advertised by the transport")
	flags.Bool("read-only", true, "open the medium read-only")
	flags.Bool("strict", true, "reject overlapping partitions and partitions outside the usable range")
	flags.String("detect-order", "gpt-first", "partition table detection order (gpt-first, mbr-first)")
	flags.Bool("mmap", false, "memory-map image files instead of reading them")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while mounted")

	rootCmd.AddCommand(
		DefineProbeCommand(),
		DefineReportCommand(),
		DefineDumpCommand(),
		DefineMountCommand(),
	)
	return rootCmd
}
