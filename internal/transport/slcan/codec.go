package slcan

import (
	"encoding/hex"
	"fmt"

	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
)

// maxDataLength is the maximum CAN 2.0B payload length.
const maxDataLength = 8

// decodeLine parses one SLCAN line (without its trailing \r) into a raw
// frame. Non-extended frames ("t" prefix) are rejected with ErrMalformedLine
// so the caller can silently skip them, per spec.md §8.
func decodeLine(line string) (frame.Raw, error) {
	if len(line) < 1 {
		return frame.Raw{}, ErrMalformedLine
	}
	if line[0] != 'T' {
		return frame.Raw{}, ErrMalformedLine
	}
	if len(line) < 1+8+1 {
		return frame.Raw{}, ErrMalformedLine
	}

	var arbID uint32
	if _, err := fmt.Sscanf(line[1:9], "%08X", &arbID); err != nil {
		return frame.Raw{}, fmt.Errorf("%w: id: %w", ErrMalformedLine, err)
	}
	arbID &= 0x1FFFFFFF

	length := int(line[9] - '0')
	if length < 0 || length > maxDataLength {
		return frame.Raw{}, fmt.Errorf("%w: length %d out of range", ErrMalformedLine, length)
	}

	want := 10 + length*2
	if len(line) < want {
		return frame.Raw{}, fmt.Errorf("%w: short data field", ErrMalformedLine)
	}

	data, err := hex.DecodeString(line[10:want])
	if err != nil {
		return frame.Raw{}, fmt.Errorf("%w: data: %w", ErrMalformedLine, err)
	}

	return frame.Raw{
		ArbID:    arbID,
		Extended: true,
		Data:     data,
		Length:   length,
	}, nil
}

// encodeLine renders arbID/payload as a SLCAN extended-frame transmit
// line, including the trailing carriage return the interface expects.
func encodeLine(arbID uint32, payload []byte) (string, error) {
	if len(payload) > maxDataLength {
		return "", fmt.Errorf("%w: payload length %d exceeds %d", ErrMalformedLine, len(payload), maxDataLength)
	}
	return fmt.Sprintf("T%08X%d%s\r", arbID&0x1FFFFFFF, len(payload), hex.EncodeToString(payload)), nil
}
