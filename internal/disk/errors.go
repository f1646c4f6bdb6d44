package disk

import "errors"

var (
	ErrFormat             = errors.New("invalid partition table format")
	ErrUnsupportedVersion = errors.New("unsupported partition table revision")
	ErrIntegrity          = errors.New("partition table integrity check failed")
	ErrTableUnavailable   = errors.New("partition table unavailable")
	ErrNoPartitions       = errors.New("no partitions found")

	// ErrProtectiveMBR signals that block 0 only protects a GPT disk and the
	// GPT must be used instead. It is a redirect, not a failure.
	ErrProtectiveMBR = errors.New("protective MBR detected")
)
