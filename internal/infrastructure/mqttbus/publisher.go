package mqttbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/bridge"
	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

// rawPublisher is the subset of Client used by Publisher, narrowed so
// tests can substitute a fake without a live broker connection.
type rawPublisher interface {
	Publish(topic string, payload []byte) error
}

// Publisher implements bridge.Publisher over a Client, JSON-encoding state,
// ack, and error records onto the topics Topics builds.
type Publisher struct {
	client rawPublisher
	topics Topics
}

// NewPublisher wraps client as a bridge.Publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client, topics: client.topics}
}

type statePayload struct {
	EntityID  string `json:"entity_id"`
	Kind      string `json:"kind"`
	Channel   string `json:"channel"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp"`
}

type ackPayload struct {
	EntityID  string `json:"entity_id"`
	Family    string `json:"family"`
	Action    string `json:"action,omitempty"`
	Value     any    `json:"value,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Timestamp string `json:"timestamp"`
}

type errorPayload struct {
	EntityID  string `json:"entity_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// PublishState publishes ev's current value to its state topic.
func (p *Publisher) PublishState(ctx context.Context, ev entity.StateEvent) error {
	payload, err := json.Marshal(statePayload{
		EntityID:  ev.EntityID,
		Kind:      string(ev.Kind),
		Channel:   ev.Channel,
		Value:     ev.Value,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, p.topics.State(ev.EntityID, ev.Channel), payload)
}

// PublishAck publishes a successfully applied command's acknowledgement.
func (p *Publisher) PublishAck(ctx context.Context, ack bridge.CommandAck) error {
	payload, err := json.Marshal(ackPayload{
		EntityID:  ack.EntityID,
		Family:    string(ack.Family),
		Action:    string(ack.Action),
		Value:     ack.Value,
		LatencyMS: ack.LatencyMS,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, p.topics.Ack(ack.EntityID), payload)
}

// PublishError publishes a rejected or failed command's error.
func (p *Publisher) PublishError(ctx context.Context, cerr bridge.CommandError) error {
	payload, err := json.Marshal(errorPayload{
		EntityID:  cerr.EntityID,
		Code:      cerr.Code,
		Message:   cerr.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, p.topics.Error(cerr.EntityID), payload)
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte) error {
	done := make(chan error, 1)
	go func() { done <- p.client.Publish(topic, payload) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
