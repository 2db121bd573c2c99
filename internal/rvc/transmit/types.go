// Package transmit implements the Transmitter: it walks a codec.Sequence
// in order, honoring each frame's pre-delay, writing it to the bus through
// an injected transport, retrying transient failures, and aborting the
// remainder of the sequence on the first frame that exhausts its retries.
package transmit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/codec"
)

// FrameWriter is the transmitter's only collaborator: a single-frame bus
// write. Implementations must serialize writes themselves if the
// underlying transport is a shared byte stream (SLCAN is).
type FrameWriter interface {
	WriteFrame(ctx context.Context, f codec.Frame) error
}

// Config holds the retry policy.
type Config struct {
	RetryCount    int
	RetryDelayMS  time.Duration
}

// Stats are the transmitter's running counters, safe for concurrent read
// while transmission is in progress.
type Stats struct {
	FramesSent   uint64
	FramesFailed uint64
	Retries      uint64
	LastError    string
}

// Transmitter owns a FrameWriter and the atomic counters describing its
// lifetime activity.
type Transmitter struct {
	writer FrameWriter
	cfg    Config

	framesSent   atomic.Uint64
	framesFailed atomic.Uint64
	retries      atomic.Uint64
	lastError    atomic.Value // string
}

// New builds a Transmitter writing through w under the given retry policy.
func New(w FrameWriter, cfg Config) *Transmitter {
	t := &Transmitter{writer: w, cfg: cfg}
	t.lastError.Store("")
	return t
}

// Stats returns a point-in-time snapshot of the transmitter's counters.
func (t *Transmitter) Stats() Stats {
	return Stats{
		FramesSent:   t.framesSent.Load(),
		FramesFailed: t.framesFailed.Load(),
		Retries:      t.retries.Load(),
		LastError:    t.lastError.Load().(string),
	}
}
