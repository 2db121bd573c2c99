package bridge

import (
	"context"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
	"github.com/nerrad567/rvcbridge/internal/rvc/validate"
)

// FrameTransport is the bus collaborator: reading and writing raw RV-C
// frames. Implementations own reconnection; ReadFrame blocks until a frame
// arrives, ctx is cancelled, or the transport fails.
type FrameTransport interface {
	ReadFrame(ctx context.Context) (frame.Raw, error)
	WriteFrame(ctx context.Context, arbID uint32, payload []byte) error
	Close() error
}

// CommandAck reports a successfully applied command back to the broker.
type CommandAck struct {
	EntityID  string
	Family    validate.Family
	Action    validate.Action
	Value     any
	LatencyMS int64
}

// CommandError reports a rejected or failed command back to the broker.
type CommandError struct {
	EntityID string
	Code     string
	Message  string
}

// Publisher is the outbound broker collaborator.
type Publisher interface {
	PublishState(ctx context.Context, ev entity.StateEvent) error
	PublishAck(ctx context.Context, ack CommandAck) error
	PublishError(ctx context.Context, cerr CommandError) error
}

// CandidateCommand is an unvalidated command as received from the broker.
type CandidateCommand struct {
	EntityID  string
	Family    validate.Family
	Action    validate.Action
	HasAction bool
	Value     any
}

// Subscriber is the inbound broker collaborator: a channel of candidate
// commands, closed when the subscription ends.
type Subscriber interface {
	Commands() <-chan CandidateCommand
}

// AuditSink records transition events for later inspection. It never
// returns an error: audit failures must not affect command processing.
type AuditSink interface {
	RecordTransition(ctx context.Context, kind string, detail map[string]any)
}

// DiscoveryPublisher announces the set of entity descriptors so a consumer
// can auto-configure without per-entity manual setup.
type DiscoveryPublisher interface {
	Announce(ctx context.Context, descriptors []entity.Descriptor) error
}
