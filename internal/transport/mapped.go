package transport

import "github.com/ostafen/blkpart/internal/mmap"

// Mapped serves blocks from a read-only memory mapping of an image file.
type Mapped struct {
	*Memory
	m *mmap.MmapFile
}

func OpenMapped(path string, opts Options) (*Mapped, error) {
	m, err := mmap.NewMmapFile(path)
	if err != nil {
		return nil, err
	}

	opts.ReadOnly = true
	mem, err := NewMemory(m.Data, opts)
	if err != nil {
		m.Close()
		return nil, err
	}
	return &Mapped{Memory: mem, m: m}, nil
}

func (t *Mapped) Close() error {
	return t.m.Close()
}
