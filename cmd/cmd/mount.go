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
	"errors"
	"net/http"

	"github.com/ostafen/blkpart/internal/fuse"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mount <device> <mountpoint>",
		Short: "Expose a device and its volumes as read-only files",
		Long: `The 'mount' command publishes the raw device and one file per discovered
partition under the given mountpoint, using FUSE. The mountpoint is created
if missing and must be empty otherwise. Send SIGINT or SIGTERM to unmount.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunMount,
	}
}

func RunMount(cmd *cobra.Command, args []string) error {
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

	if s.metrics != nil {
		addr := s.cfg.MetricsAddr
		go func() {
			err := s.metrics.Serve(addr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		s.console.Infof("Serving metrics on %s/metrics", addr)
	}

	s.console.Infof("Mounting %d volume(s) of %s on %s", len(att.Volumes), att.Name, absPath(args[1]))
	return fuse.Mount(args[1], att, s.logger)
}
