//go:build linux
// +build linux

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
package fuse

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/ostafen/blkpart/internal/driver"
	utilos "github.com/ostafen/blkpart/pkg/util/os"
)

const maxUnmountRetries = 3

// Mount exposes the devices of att under mountpoint and blocks until the
// filesystem is unmounted after a termination signal.
func Mount(mountpoint string, att *driver.Attachment, logger *slog.Logger) error {
	created, err := utilos.EnsureDir(mountpoint, true)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(mountpoint,
		fuse.ReadOnly(),
		fuse.FSName(att.Name),
		fuse.Subtype("blkpart"),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		srv := fusefs.New(c, nil)
		errc <- srv.Serve(NewDeviceFS(att))
	}()
	return waitForUmount(mountpoint, errc, logger)
}

func waitForUmount(mountpoint string, errc <-chan error, logger *slog.Logger) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	logger.Info("waiting for termination signal", "mountpoint", mountpoint)

	unmountAttempts := 0
	for {
		select {
		case err := <-errc:
			return err
		case sig := <-sigc:
			logger.Info("signal received", "signal", sig)

			if unmountAttempts >= maxUnmountRetries {
				return fmt.Errorf("unable to unmount %s after %d attempts", mountpoint, maxUnmountRetries)
			}

			unmountAttempts++
			if err := fuse.Unmount(mountpoint); err != nil {
				logger.Warn("unmount failed",
					"mountpoint", mountpoint,
					"attempt", unmountAttempts,
					"remaining", maxUnmountRetries-unmountAttempts,
					"error", err,
				)
				continue
			}

			logger.Info("unmounted", "mountpoint", mountpoint)
			return <-errc
		}
	}
}
