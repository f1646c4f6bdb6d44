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
package blockio

import "fmt"

// Transport performs the actual block transfers against a medium.
// Implementations are responsible for their own request serialization.
type Transport interface {
	Media() Media
	ReadBlocks(mediaID uint32, lba uint64, buf []byte) error
	WriteBlocks(mediaID uint32, lba uint64, buf []byte) error
	Flush() error
	Reset(extended bool) error
}

// Device is a routable block-addressable unit: either a raw medium or a
// partition view over another Device.
type Device interface {
	Media() Media
	ReadBlocks(mediaID uint32, lba uint64, buf []byte) error
	WriteBlocks(mediaID uint32, lba uint64, buf []byte) error
	FlushBlocks() error
	Reset(extended bool) error
}

// RawDevice routes requests directly to a Transport.
type RawDevice struct {
	media     Media
	transport Transport
}

func NewRawDevice(t Transport) *RawDevice {
	return &RawDevice{
		media:     t.Media(),
		transport: t,
	}
}

func (d *RawDevice) Media() Media {
	return d.media
}

func (d *RawDevice) ReadBlocks(mediaID uint32, lba uint64, buf []byte) error {
	if err := checkRequest(d.media, mediaID, lba, len(buf)); err != nil || len(buf) == 0 {
		return err
	}

	if err := d.transport.ReadBlocks(mediaID, lba, buf); err != nil {
		return fmt.Errorf("%w: read %d bytes at LBA %d: %w", ErrDevice, len(buf), lba, err)
	}
	return nil
}

func (d *RawDevice) WriteBlocks(mediaID uint32, lba uint64, buf []byte) error {
	if d.media.ReadOnly {
		return ErrWriteProtected
	}

	if err := checkRequest(d.media, mediaID, lba, len(buf)); err != nil || len(buf) == 0 {
		return err
	}

	if err := d.transport.WriteBlocks(mediaID, lba, buf); err != nil {
		return fmt.Errorf("%w: write %d bytes at LBA %d: %w", ErrDevice, len(buf), lba, err)
	}
	return nil
}

func (d *RawDevice) FlushBlocks() error {
	if err := d.transport.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrDevice, err)
	}
	return nil
}

func (d *RawDevice) Reset(extended bool) error {
	if err := d.transport.Reset(extended); err != nil {
		return fmt.Errorf("%w: reset: %w", ErrDevice, err)
	}
	return nil
}

// PartitionDevice exposes the blocks [start, end] of its parent as a device
// addressed from zero. The parent is not owned.
type PartitionDevice struct {
	parent Device
	start  uint64
	media  Media
}

// NewPartitionDevice builds a view over the absolute range [start, end] of
// parent. The range must lie within the parent media.
func NewPartitionDevice(parent Device, start, end uint64) (*PartitionDevice, error) {
	pm := parent.Media()
	if start > end || end > pm.LastBlock {
		return nil, fmt.Errorf("%w: partition range [%d, %d] outside media (last block %d)",
			ErrInvalidParameter, start, end, pm.LastBlock)
	}

	media := pm
	media.LastBlock = end - start
	media.LogicalPartition = true

	return &PartitionDevice{
		parent: parent,
		start:  start,
		media:  media,
	}, nil
}

func (d *PartitionDevice) Media() Media {
	return d.media
}

// Start returns the absolute LBA of the first block of the view.
func (d *PartitionDevice) Start() uint64 {
	return d.start
}

func (d *PartitionDevice) Parent() Device {
	return d.parent
}

func (d *PartitionDevice) ReadBlocks(mediaID uint32, lba uint64, buf []byte) error {
	if err := checkRequest(d.media, mediaID, lba, len(buf)); err != nil || len(buf) == 0 {
		return err
	}
	return d.parent.ReadBlocks(d.parent.Media().MediaID, lba+d.start, buf)
}

func (d *PartitionDevice) WriteBlocks(mediaID uint32, lba uint64, buf []byte) error {
	if d.media.ReadOnly {
		return ErrWriteProtected
	}

	if err := checkRequest(d.media, mediaID, lba, len(buf)); err != nil || len(buf) == 0 {
		return err
	}
	return d.parent.WriteBlocks(d.parent.Media().MediaID, lba+d.start, buf)
}

func (d *PartitionDevice) FlushBlocks() error {
	return d.parent.FlushBlocks()
}

func (d *PartitionDevice) Reset(extended bool) error {
	return d.parent.Reset(extended)
}

// checkRequest validates a transfer of size bytes starting at lba.
// The whole range, not only its first block, must be addressable.
func checkRequest(m Media, mediaID uint32, lba uint64, size int) error {
	if mediaID != m.MediaID {
		return fmt.Errorf("%w: got id %d, expected %d", ErrMediaChanged, mediaID, m.MediaID)
	}

	if size%int(m.BlockSize) != 0 {
		return fmt.Errorf("%w: %d bytes with block size %d", ErrBadBufferSize, size, m.BlockSize)
	}

	if lba > m.LastBlock {
		return fmt.Errorf("%w: LBA %d beyond last block %d", ErrInvalidParameter, lba, m.LastBlock)
	}

	if size == 0 {
		return nil
	}

	blocks := uint64(size) / uint64(m.BlockSize)
	if blocks-1 > m.LastBlock-lba {
		return fmt.Errorf("%w: %d blocks at LBA %d cross last block %d", ErrInvalidParameter, blocks, lba, m.LastBlock)
	}
	return nil
}
