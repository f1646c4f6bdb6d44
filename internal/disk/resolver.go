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
package disk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ostafen/blkpart/internal/blockio"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Scheme identifies the partitioning scheme found on a device.
type Scheme uint8

const (
	SchemeNone Scheme = iota
	SchemeGPT
	SchemeMBR
)

func (s Scheme) String() string {
	switch s {
	case SchemeGPT:
		return "gpt"
	case SchemeMBR:
		return "mbr"
	default:
		return "none"
	}
}

// DetectOrder selects which table format is tried first.
type DetectOrder uint8

const (
	GPTFirst DetectOrder = iota
	MBRFirst
)

func ParseDetectOrder(s string) (DetectOrder, error) {
	switch s {
	case "", "gpt-first":
		return GPTFirst, nil
	case "mbr-first":
		return MBRFirst, nil
	}
	return GPTFirst, fmt.Errorf("unknown detection order %q", s)
}

// Table is the outcome of a detection run.
type Table struct {
	Scheme     Scheme
	Partitions []Partition

	DiskGUID      uuid.UUID // GPT only
	DiskSignature uint32    // MBR only
	HeaderLBA     uint64    // LBA of the GPT header that was used
	EntriesLBA    uint64    // LBA of the GPT entry array that was used

	// Err is the reason no table was found, when Scheme is SchemeNone.
	Err error
}

type Options struct {
	// Strict rejects GPT tables whose partitions overlap or leave the
	// usable range declared by the header.
	Strict bool
	Order  DetectOrder
	Logger *slog.Logger
}

// Resolver discovers the partition layout of a block device.
type Resolver struct {
	strict bool
	order  DetectOrder
	logger *slog.Logger
}

func NewResolver(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	return &Resolver{
		strict: opts.Strict,
		order:  opts.Order,
		logger: logger,
	}
}

// Detect resolves the partition table of dev. It never fails: when no table
// can be used the returned Table has SchemeNone and the device should be
// exposed unpartitioned.
func (r *Resolver) Detect(dev blockio.Device) Table {
	var t Table
	if r.order == MBRFirst {
		t = r.detectMBRFirst(dev)
	} else {
		t = r.detectGPTFirst(dev)
	}

	if t.Scheme == SchemeNone {
		r.logger.Info("no partition table found", "reason", t.Err)
	} else {
		r.logger.Info("partition table found", "scheme", t.Scheme, "partitions", len(t.Partitions))
	}
	return t
}

func (r *Resolver) detectGPTFirst(dev blockio.Device) Table {
	t, gptErr := r.detectGPT(dev)
	if gptErr == nil {
		return t
	}
	r.logger.Warn("GPT detection failed, trying MBR", "error", gptErr)

	t, mbrErr := r.detectMBR(dev)
	switch {
	case mbrErr == nil:
		return t
	case errors.Is(mbrErr, ErrProtectiveMBR):
		// The disk is GPT, and GPT already failed.
		return Table{Err: fmt.Errorf("%w: %w", gptErr, ErrProtectiveMBR)}
	default:
		return Table{Err: errors.Join(gptErr, mbrErr)}
	}
}

func (r *Resolver) detectMBRFirst(dev blockio.Device) Table {
	t, mbrErr := r.detectMBR(dev)
	if mbrErr == nil {
		return t
	}

	if errors.Is(mbrErr, ErrProtectiveMBR) {
		r.logger.Debug("protective MBR found, switching to GPT")
	} else {
		r.logger.Warn("MBR detection failed, trying GPT", "error", mbrErr)
	}

	t, gptErr := r.detectGPT(dev)
	if gptErr == nil {
		return t
	}
	return Table{Err: errors.Join(mbrErr, gptErr)}
}

func (r *Resolver) detectMBR(dev blockio.Device) (Table, error) {
	mbr, partitions, err := readMBR(dev, r.logger)
	if err != nil {
		return Table{}, err
	}

	return Table{
		Scheme:        SchemeMBR,
		Partitions:    partitions,
		DiskSignature: mbr.ReadDiskSignature(),
	}, nil
}

// detectGPT reads the GPT, retrying each artifact once from its backup copy.
// Any unresolved failure is reported as ErrTableUnavailable.
func (r *Resolver) detectGPT(dev blockio.Device) (Table, error) {
	media := dev.Media()

	hdr, err := r.readHeader(dev, PrimaryHeaderLBA)
	if err != nil {
		r.logger.Warn("primary GPT header unusable, trying backup", "lba", PrimaryHeaderLBA, "error", err)

		backup, backupErr := r.readHeader(dev, media.LastBlock)
		if backupErr != nil {
			return Table{}, fmt.Errorf("%w: primary header: %v; backup header: %w", ErrTableUnavailable, err, backupErr)
		}
		hdr = backup
	}

	entriesLBA := hdr.PartitionEntryLBA
	partitions, err := r.readPartitions(dev, hdr, entriesLBA)
	if err != nil {
		alt, ok := hdr.AlternateEntryLBA(media.BlockSize)
		if !ok {
			return Table{}, fmt.Errorf("%w: entries: %w", ErrTableUnavailable, err)
		}
		r.logger.Warn("GPT entry array unusable, trying alternate copy", "lba", entriesLBA, "alternate_lba", alt, "error", err)

		var altErr error
		partitions, altErr = r.readPartitions(dev, hdr, alt)
		if altErr != nil {
			return Table{}, fmt.Errorf("%w: entries: %v; alternate entries: %w", ErrTableUnavailable, err, altErr)
		}
		entriesLBA = alt
	}

	return Table{
		Scheme:     SchemeGPT,
		Partitions: partitions,
		DiskGUID:   hdr.DiskGUID.UUID(),
		HeaderLBA:  hdr.MyLBA,
		EntriesLBA: entriesLBA,
	}, nil
}

func (r *Resolver) readHeader(dev blockio.Device, lba uint64) (*GPTHeader, error) {
	r.logger.Debug("reading GPT header", "lba", lba)

	hdr, err := ReadGPTHeader(dev, lba)
	if err != nil {
		return nil, err
	}

	if r.strict {
		if err := CheckUsableRange(hdr, dev.Media()); err != nil {
			return nil, err
		}
	}
	return hdr, nil
}

func (r *Resolver) readPartitions(dev blockio.Device, hdr *GPTHeader, lba uint64) ([]Partition, error) {
	r.logger.Debug("reading GPT entries", "lba", lba, "count", hdr.NumberOfPartitionEntries, "size", hdr.SizeOfPartitionEntry)

	entries, err := ReadGPTEntries(dev, hdr, lba)
	if err != nil {
		return nil, err
	}
	return gptPartitions(hdr, entries, dev.Media(), r.strict)
}

func deviceError(err error, what string) error {
	if errors.Is(err, blockio.ErrDevice) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %w", blockio.ErrDevice, what, err)
}
