package fs

import (
	"io"
	"os"
)

type File interface {
	io.ReadCloser
	io.ReaderAt
	Stat() (os.FileInfo, error)
}

// WritableFile is a File that also accepts positional writes.
type WritableFile interface {
	File
	io.WriterAt
	Sync() error
}

// Geometry describes the layout of an opened disk or image.
// A zero BlockSize means the source did not report one.
type Geometry struct {
	BlockSize uint32
	Size      int64
	IsDevice  bool
}
