package codec

import "fmt"

// Error is an EncoderError{E100}: the entity has no RV-C mapping for the
// requested action.
type Error struct {
	Msg string
}

const CodeNoMapping = "E100"

func (e *Error) Error() string {
	return fmt.Sprintf("codec: %s: %s", CodeNoMapping, e.Msg)
}

func newError(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}
