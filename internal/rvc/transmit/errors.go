package transmit

import (
	"errors"
	"fmt"
)

// CodeTxFailure is the stable error code surfaced to the feedback channel
// when a frame exhausts its retries.
const CodeTxFailure = "E101"

// TxError reports the index of the frame that failed within its sequence
// and the underlying transport error. Frames before FrameIndex were
// written successfully; frames after it were abandoned.
type TxError struct {
	FrameIndex int
	Err        error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transmit: frame %d: %s: %v", e.FrameIndex, CodeTxFailure, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// ErrCancelled is returned when a pending pre-delay is cancelled by the
// caller's context before the frame is written.
var ErrCancelled = errors.New("transmit: sequence cancelled")
