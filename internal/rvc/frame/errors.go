package frame

import "fmt"

// ErrInvalidFrame is reported for a malformed or truncated frame: per-frame
// warning, decoding continues with the next frame.
type ErrInvalidFrame struct {
	Reason string
}

func (e *ErrInvalidFrame) Error() string {
	return fmt.Sprintf("frame: invalid frame: %s", e.Reason)
}

// ErrUnknownDGN is reported when the arbitration id's DGN has no definition
// in the Spec Registry: per-frame warning, the frame is dropped.
type ErrUnknownDGN struct {
	DGN uint32
}

func (e *ErrUnknownDGN) Error() string {
	return fmt.Sprintf("frame: unknown DGN 0x%X", e.DGN)
}
