package transmit

import (
	"context"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/codec"
)

// Send writes seq to the bus in order. Before each frame it sleeps for the
// frame's PreDelayMS (cancellable via ctx), then writes the frame, retrying
// up to cfg.RetryCount additional times with cfg.RetryDelayMS between
// attempts on transport error. The first frame that exhausts its retries
// aborts the remainder of the sequence; frames already written are not
// retracted, and the rate limiter's admission is never rolled back by a
// caller reacting to this error.
func (t *Transmitter) Send(ctx context.Context, seq codec.Sequence) error {
	for i, f := range seq {
		if f.PreDelayMS > 0 {
			if err := sleep(ctx, time.Duration(f.PreDelayMS)*time.Millisecond); err != nil {
				return err
			}
		}

		if err := t.writeWithRetry(ctx, f); err != nil {
			t.framesFailed.Add(1)
			t.lastError.Store(err.Error())
			return &TxError{FrameIndex: i, Err: err}
		}
		t.framesSent.Add(1)
	}
	return nil
}

func (t *Transmitter) writeWithRetry(ctx context.Context, f codec.Frame) error {
	var lastErr error
	attempts := 1 + t.cfg.RetryCount
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			t.retries.Add(1)
			if err := sleep(ctx, t.cfg.RetryDelayMS); err != nil {
				return err
			}
		}
		if err := t.writer.WriteFrame(ctx, f); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ErrCancelled
	}
}
