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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/config"
	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/driver"
	"github.com/ostafen/blkpart/internal/logger"
	"github.com/ostafen/blkpart/internal/metrics"
	"github.com/ostafen/blkpart/internal/transport"
	"github.com/spf13/cobra"
)

// session holds what a command needs to attach one medium.
type session struct {
	cfg     *config.Config
	console *logger.Logger
	logger  *slog.Logger
	metrics *metrics.Collector

	closers []io.Closer
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.LogLevel)

	s := &session{
		cfg:     cfg,
		console: logger.New(cmd.ErrOrStderr(), level),
	}

	slogger, logFile, err := setupLogger(cfg.LogFile, level, s.console)
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		s.closers = append(s.closers, logFile)
	}
	s.logger = slogger

	if cfg.MetricsAddr != "" {
		s.metrics = metrics.NewCollector()
	}
	return s, nil
}

// setupLogger returns a structured logger writing to logFilePath, or to the
// console when the path is empty. The returned file, if any, must be closed
// by the caller.
func setupLogger(logFilePath string, level logger.Level, console *logger.Logger) (*slog.Logger, *os.File, error) {
	if logFilePath == "" {
		return slog.New(console), nil, nil
	}

	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}

	f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
	}
	return logger.NewSlog(f, level), f, nil
}

func (s *session) transportOptions() transport.Options {
	return transport.Options{
		BlockSize: s.cfg.BlockSize,
		MediaID:   s.cfg.MediaID,
		ReadOnly:  s.cfg.ReadOnly,
		Removable: s.cfg.Removable,
	}
}

func (s *session) openTransport(path string) (blockio.Transport, error) {
	opts := s.transportOptions()

	if s.cfg.Mmap {
		t, err := transport.OpenMapped(path, opts)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, t)
		return t, nil
	}

	t, err := transport.Open(path, opts)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, t)
	return t, nil
}

// attach opens the medium at path and publishes it on a fresh driver.
func (s *session) attach(path string) (*driver.Driver, *driver.Attachment, error) {
	path = disk.NormalizeVolumePath(path)

	order, err := disk.ParseDetectOrder(s.cfg.DetectOrder)
	if err != nil {
		return nil, nil, err
	}

	t, err := s.openTransport(path)
	if err != nil {
		return nil, nil, err
	}

	drv := driver.New(driver.Config{
		Strict:  s.cfg.Strict,
		Order:   order,
		Logger:  s.logger,
		Metrics: s.metrics,
	})

	att, err := drv.Attach(disk.DeviceName(path), t)
	if err != nil {
		return nil, nil, err
	}

	s.console.Infof("Attached %s as %s (%s)", path, att.Name, att.Device.Media())
	if att.Table.Scheme == disk.SchemeNone {
		s.console.Warnf("No usable partition table: %v", att.Table.Err)
	}
	return drv, att, nil
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
