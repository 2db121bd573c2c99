// Package bridge orchestrates two of the core's cooperating activities
// (command ingress is handled by the Subscriber collaborator): an RX
// activity that decodes and projects inbound frames, and a command
// activity that validates, encodes, rate-limits, and transmits
// outbound commands in FIFO order. It owns no protocol logic itself; it
// wires the registry, projector, validator, codec, rate limiter, and
// transmitter together against injected transport and broker collaborators.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/rvcbridge/internal/rvc/codec"
	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
	"github.com/nerrad567/rvcbridge/internal/rvc/registry"
	"github.com/nerrad567/rvcbridge/internal/rvc/transmit"
	"github.com/nerrad567/rvcbridge/internal/rvc/validate"
)

// Logger is the minimal structured-logging surface the bridge needs,
// satisfied by the infrastructure logging wrapper.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Bridge. Registry, Projector, Validator, and
// Transmitter are required; AuditSink and DiscoveryPublisher are optional.
type Options struct {
	Registry    *registry.Registry
	Projector   *entity.Projector
	Validator   *validate.Validator
	Transmitter *transmit.Transmitter

	Transport  FrameTransport
	Publisher  Publisher
	Subscriber Subscriber
	Audit      AuditSink
	Discovery  DiscoveryPublisher

	// Targets maps an entity id to its outbound RV-C addressing.
	Targets map[string]codec.Target

	Logger Logger
}

// Bridge is the process-lifetime orchestrator. All methods are safe for
// concurrent use.
type Bridge struct {
	reg       *registry.Registry
	projector *entity.Projector
	validator *validate.Validator
	tx        *transmit.Transmitter

	transport  FrameTransport
	publisher  Publisher
	subscriber Subscriber
	audit      AuditSink
	discovery  DiscoveryPublisher

	targets map[string]codec.Target
	logger  Logger

	modeMu      sync.Mutex
	currentMode map[string]string // entity id -> last known thermostat mode

	stopOnce sync.Once
}

// New builds a Bridge from opts. It does not start any activity.
func New(opts Options) (*Bridge, error) {
	if opts.Registry == nil || opts.Projector == nil || opts.Validator == nil || opts.Transmitter == nil {
		return nil, fmt.Errorf("bridge: registry, projector, validator, and transmitter are required")
	}
	if opts.Transport == nil || opts.Publisher == nil || opts.Subscriber == nil {
		return nil, fmt.Errorf("bridge: transport, publisher, and subscriber are required")
	}
	return &Bridge{
		reg:         opts.Registry,
		projector:   opts.Projector,
		validator:   opts.Validator,
		tx:          opts.Transmitter,
		transport:   opts.Transport,
		publisher:   opts.Publisher,
		subscriber:  opts.Subscriber,
		audit:       opts.Audit,
		discovery:   opts.Discovery,
		targets:     opts.Targets,
		logger:      opts.Logger,
		currentMode: make(map[string]string),
	}, nil
}

// Run starts the RX and command-egress activities and blocks until ctx is
// cancelled or either activity returns a non-cancellation error.
func (b *Bridge) Run(ctx context.Context) error {
	if b.discovery != nil {
		if err := b.discovery.Announce(ctx, b.projector.Descriptors()); err != nil {
			b.logWarn("discovery announce failed", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.rxLoop(gctx) })
	g.Go(func() error { return b.egressLoop(gctx) })

	err := g.Wait()
	if err != nil && gctx.Err() != nil {
		return nil // cancellation, not a real failure
	}
	return err
}

// Stop closes the transport. Call it after Run returns; shutdown of the
// RX and command-egress activities themselves is driven by cancelling the
// ctx passed to Run.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if err := b.transport.Close(); err != nil {
			b.logWarn("transport close failed", "error", err)
		}
	})
}

// rxLoop pulls frames from the transport and synchronously decodes and
// projects them; it never blocks on the bus writer.
func (b *Bridge) rxLoop(ctx context.Context) error {
	for {
		raw, err := b.transport.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logWarn("frame read failed", "error", err)
			continue
		}

		dec, err := frame.Decode(b.reg, raw)
		if err != nil {
			b.logDebug("frame decode skipped", "error", err)
			continue
		}

		for _, ev := range b.projector.Project(dec) {
			if err := b.publisher.PublishState(ctx, ev); err != nil {
				b.logWarn("publish state failed", "error", err, "entity_id", ev.EntityID)
			}
			if ev.Kind == entity.KindClimate && ev.Channel == entity.ChannelMode {
				if mode, ok := ev.Value.(string); ok {
					b.setCurrentMode(ev.EntityID, mode)
				}
			}
		}
	}
}

// egressLoop dequeues candidate commands in FIFO order and validates,
// encodes, and transmits each in turn. A single worker preserves FIFO per
// the reference concurrency model.
func (b *Bridge) egressLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-b.subscriber.Commands():
			if !ok {
				return nil
			}
			b.handleCommand(ctx, cmd)
		}
	}
}

func (b *Bridge) handleCommand(ctx context.Context, cmd CandidateCommand) {
	start := time.Now()
	correlationID := uuid.NewString()

	b.recordAudit(ctx, "command_received", map[string]any{
		"correlation_id": correlationID, "entity_id": cmd.EntityID, "family": cmd.Family,
	})

	norm, err := b.validator.Validate(validate.RawCommand{
		EntityID:  cmd.EntityID,
		Family:    cmd.Family,
		Action:    cmd.Action,
		HasAction: cmd.HasAction,
		Value:     cmd.Value,
	})
	if err != nil {
		b.rejectCommand(ctx, correlationID, cmd.EntityID, err)
		return
	}
	b.recordAudit(ctx, "command_validated", map[string]any{
		"correlation_id": correlationID, "entity_id": norm.EntityID, "family": norm.Family, "action": norm.Action,
	})

	target, ok := b.targets[cmd.EntityID]
	if !ok {
		b.rejectCommand(ctx, correlationID, cmd.EntityID, &validate.Error{Code: validate.CodeUnknownEntity, Msg: "no outbound target registered"})
		return
	}

	seq, err := codec.Encode(norm, target, b.getCurrentMode(cmd.EntityID))
	if err != nil {
		b.rejectCommand(ctx, correlationID, cmd.EntityID, err)
		return
	}

	if err := b.tx.Send(ctx, seq); err != nil {
		b.recordAudit(ctx, "transmission_failed", map[string]any{
			"correlation_id": correlationID, "entity_id": norm.EntityID, "error": err.Error(),
		})
		b.rejectCommand(ctx, correlationID, cmd.EntityID, err)
		return
	}
	b.recordAudit(ctx, "frame_transmitted", map[string]any{
		"correlation_id": correlationID, "entity_id": norm.EntityID, "frame_count": len(seq),
	})

	if norm.Family == validate.FamilyClimate && norm.Action == validate.ActionMode {
		if mode, ok := norm.Value.(string); ok {
			b.setCurrentMode(norm.EntityID, mode)
		}
	}

	b.recordAudit(ctx, "command_applied", map[string]any{
		"correlation_id": correlationID, "entity_id": norm.EntityID, "family": norm.Family, "action": norm.Action,
	})

	if err := b.publisher.PublishAck(ctx, CommandAck{
		EntityID:  norm.EntityID,
		Family:    norm.Family,
		Action:    norm.Action,
		Value:     norm.Value,
		LatencyMS: time.Since(start).Milliseconds(),
	}); err != nil {
		b.logWarn("publish ack failed", "error", err, "entity_id", norm.EntityID)
	}
}

func (b *Bridge) rejectCommand(ctx context.Context, correlationID, entityID string, err error) {
	code, msg := errorCodeAndMessage(err)
	b.recordAudit(ctx, "command_rejected", map[string]any{
		"correlation_id": correlationID, "entity_id": entityID, "code": code, "message": msg,
	})
	if pubErr := b.publisher.PublishError(ctx, CommandError{EntityID: entityID, Code: code, Message: msg}); pubErr != nil {
		b.logWarn("publish error failed", "error", pubErr, "entity_id", entityID)
	}
}

func errorCodeAndMessage(err error) (string, string) {
	switch e := err.(type) {
	case *validate.Error:
		return e.Code, e.Msg
	case *codec.Error:
		return codec.CodeNoMapping, e.Msg
	case *transmit.TxError:
		return transmit.CodeTxFailure, e.Error()
	default:
		return "E000", err.Error()
	}
}

func (b *Bridge) recordAudit(ctx context.Context, kind string, detail map[string]any) {
	if b.audit == nil {
		return
	}
	b.audit.RecordTransition(ctx, kind, detail)
}

func (b *Bridge) setCurrentMode(entityID, mode string) {
	b.modeMu.Lock()
	b.currentMode[entityID] = mode
	b.modeMu.Unlock()
}

func (b *Bridge) getCurrentMode(entityID string) string {
	b.modeMu.Lock()
	defer b.modeMu.Unlock()
	return b.currentMode[entityID]
}

func (b *Bridge) logDebug(msg string, kv ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, kv...)
	}
}

func (b *Bridge) logWarn(msg string, kv ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, kv...)
	}
}
