package wire

import "fmt"

// CodecError reports a frame that carried a known tag but a payload
// that failed to decode. Per-frame and recoverable: the read loop
// reports it and moves on to the next frame.
type CodecError struct {
	Tag string
	Err error
}

func (e *CodecError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("malformed frame: %v", e.Err)
	}
	return fmt.Sprintf("malformed %s frame: %v", e.Tag, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
