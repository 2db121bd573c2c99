package discovery

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

// rawPublisher is the narrow publish surface Publisher needs, satisfied
// by mqttbus.Client.
type rawPublisher interface {
	Publish(topic string, payload []byte) error
}

// Publisher implements bridge.DiscoveryPublisher by rendering descriptors
// with Build and publishing the result to a fixed topic.
type Publisher struct {
	client   rawPublisher
	topic    string
	bridgeID string
}

// NewPublisher builds a Publisher that announces on topic, identifying
// itself as bridgeID.
func NewPublisher(client rawPublisher, topic, bridgeID string) *Publisher {
	return &Publisher{client: client, topic: topic, bridgeID: bridgeID}
}

// Announce renders descriptors and publishes them as a (non-retained)
// discovery message.
func (p *Publisher) Announce(_ context.Context, descriptors []entity.Descriptor) error {
	msg := Build(p.bridgeID, descriptors)
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.client.Publish(p.topic, payload)
}
