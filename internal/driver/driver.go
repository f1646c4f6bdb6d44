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

// Package driver publishes block media as a raw device plus one logical
// device per discovered partition.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/ostafen/blkpart/internal/disk"
	"github.com/ostafen/blkpart/internal/metrics"
)

var (
	ErrUnsupported     = errors.New("unsupported media")
	ErrAlreadyAttached = errors.New("device already attached")
	ErrNotAttached     = errors.New("device not attached")
)

const minBlockSize = 512

type Config struct {
	Strict bool
	Order  disk.DetectOrder
	Logger *slog.Logger

	// Metrics, when set, counts every request issued through the
	// published devices.
	Metrics *metrics.Collector
}

// Volume is a published logical device backed by one partition record.
type Volume struct {
	Name      string
	Partition disk.Partition
	Device    blockio.Device
}

type Attachment struct {
	Name      string
	Transport blockio.Transport
	Device    blockio.Device
	Table     disk.Table
	Volumes   []Volume
}

// Volume returns the volume numbered n, where n is the one-based table slot
// used in its name.
func (a *Attachment) Volume(n int) (*Volume, bool) {
	for i := range a.Volumes {
		if a.Volumes[i].Partition.Index+1 == n {
			return &a.Volumes[i], true
		}
	}
	return nil, false
}

type Driver struct {
	cfg      Config
	resolver *disk.Resolver
	logger   *slog.Logger

	mtx      sync.Mutex
	attached map[string]*Attachment
}

func New(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Driver{
		cfg: cfg,
		resolver: disk.NewResolver(disk.Options{
			Strict: cfg.Strict,
			Order:  cfg.Order,
			Logger: logger,
		}),
		logger:   logger,
		attached: make(map[string]*Attachment),
	}
}

// Supported reports whether the driver can publish media exposed by t.
func (d *Driver) Supported(t blockio.Transport) bool {
	return checkMedia(t.Media()) == nil
}

func checkMedia(m blockio.Media) error {
	if m.BlockSize < minBlockSize || !blockio.IsPowerOfTwo(m.BlockSize) {
		return fmt.Errorf("%w: block size %d", ErrUnsupported, m.BlockSize)
	}

	if m.Size() == 0 {
		return fmt.Errorf("%w: empty media", ErrUnsupported)
	}
	return nil
}

// Attach runs partition detection on t and publishes the raw device and its
// volumes under name. Detection failures still publish the raw device.
func (d *Driver) Attach(name string, t blockio.Transport) (*Attachment, error) {
	media := t.Media()
	if err := checkMedia(media); err != nil {
		return nil, err
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.attached[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAttached, name)
	}

	raw := blockio.NewRawDevice(t)
	table := d.resolver.Detect(raw)

	volumes, err := d.buildVolumes(name, raw, table.Partitions)
	if err != nil {
		d.logger.Warn("discarding partition table", "device", name, "error", err)

		table = disk.Table{Scheme: disk.SchemeNone, Err: fmt.Errorf("%w: %w", disk.ErrTableUnavailable, err)}
		volumes = nil
	}

	att := &Attachment{
		Name:      name,
		Transport: t,
		Device:    d.instrument(name, raw),
		Table:     table,
		Volumes:   volumes,
	}
	d.attached[name] = att

	if d.cfg.Metrics != nil {
		d.cfg.Metrics.ObserveDetection(name, table.Scheme.String(), len(volumes))
	}

	d.logger.Info("device attached",
		"device", name,
		"media", media.String(),
		"scheme", table.Scheme,
		"volumes", len(volumes),
	)
	return att, nil
}

func (d *Driver) buildVolumes(name string, raw blockio.Device, partitions []disk.Partition) ([]Volume, error) {
	volumes := make([]Volume, 0, len(partitions))
	for _, p := range partitions {
		dev, err := blockio.NewPartitionDevice(raw, p.Start, p.End)
		if err != nil {
			return nil, fmt.Errorf("partition %d: %w", p.Index, err)
		}

		volName := fmt.Sprintf("%sp%d", name, p.Index+1)
		volumes = append(volumes, Volume{
			Name:      volName,
			Partition: p,
			Device:    d.instrument(volName, dev),
		})
		d.logger.Debug("volume published", "volume", volName, "partition", p.String())
	}
	return volumes, nil
}

func (d *Driver) instrument(name string, dev blockio.Device) blockio.Device {
	if d.cfg.Metrics == nil {
		return dev
	}
	return d.cfg.Metrics.Instrument(name, dev)
}

// Release flushes the raw device and unpublishes it together with its
// volumes. The attachment is removed even when the flush fails.
func (d *Driver) Release(name string) error {
	d.mtx.Lock()
	att, ok := d.attached[name]
	if ok {
		delete(d.attached, name)
	}
	d.mtx.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, name)
	}

	if d.cfg.Metrics != nil {
		d.cfg.Metrics.Forget(name)
	}

	if err := att.Device.FlushBlocks(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}

	d.logger.Info("device released", "device", name)
	return nil
}

func (d *Driver) Attachment(name string) (*Attachment, bool) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	att, ok := d.attached[name]
	return att, ok
}

// Attachments returns the published attachments sorted by name.
func (d *Driver) Attachments() []*Attachment {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	out := make([]*Attachment, 0, len(d.attached))
	for _, att := range d.attached {
		out = append(out, att)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
