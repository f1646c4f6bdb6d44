package disk

import (
	"fmt"

	"github.com/google/uuid"
)

// Partition is a resolved partition record. Records are built once during
// detection and never modified afterwards.
type Partition struct {
	Index      int    // zero-based slot in the partition table
	Start      uint64 // first LBA
	End        uint64 // last LBA, inclusive
	Type       PartitionType
	TypeGUID   uuid.UUID
	UniqueID   uuid.UUID
	PartUUID   string // kernel-style identifier for legacy partitions
	Name       string
	Attributes uint64
	Bootable   bool
	Valid      bool // inside the usable area and not overlapping any other record
}

// Blocks returns the length of the partition in blocks.
func (p Partition) Blocks() uint64 {
	return p.End - p.Start + 1
}

// Size returns the length of the partition in bytes.
func (p Partition) Size(blockSize uint32) uint64 {
	return p.Blocks() * uint64(blockSize)
}

// ID returns the most specific identifier available for the record.
func (p Partition) ID() string {
	if p.UniqueID != uuid.Nil {
		return p.UniqueID.String()
	}
	return p.PartUUID
}

func (p Partition) String() string {
	return fmt.Sprintf("#%d %q [%d, %d] %s", p.Index+1, p.Name, p.Start, p.End, p.Type)
}
