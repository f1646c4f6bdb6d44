package blockio

import "errors"

var (
	// ErrDevice reports a transport level failure.
	ErrDevice           = errors.New("device error")
	ErrMediaChanged     = errors.New("media changed")
	ErrBadBufferSize    = errors.New("buffer size is not a multiple of the block size")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrWriteProtected   = errors.New("write protected")
)
