package mqttbus

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/rvcbridge/internal/rvc/bridge"
	"github.com/nerrad567/rvcbridge/internal/rvc/validate"
)

// commandBacklog bounds the number of undelivered commands buffered between
// the paho callback goroutine and the bridge's egress loop.
const commandBacklog = 64

type commandPayload struct {
	Family validate.Family `json:"family"`
	Action string          `json:"action"`
	Value  any             `json:"value"`
}

// Subscriber implements bridge.Subscriber by subscribing to every entity's
// command topic and decoding JSON payloads into bridge.CandidateCommand.
type Subscriber struct {
	client *Client
	topics Topics
	ch     chan bridge.CandidateCommand
	logger Logger
}

// NewSubscriber wraps client as a bridge.Subscriber. Call Start to begin
// receiving.
func NewSubscriber(client *Client) *Subscriber {
	return &Subscriber{
		client: client,
		topics: client.topics,
		ch:     make(chan bridge.CandidateCommand, commandBacklog),
	}
}

// Start subscribes to the command wildcard filter. Commands() is ready to
// receive immediately after Start returns nil.
func (s *Subscriber) Start() error {
	return s.client.Subscribe(s.topics.CommandSubscribeFilter(), byte(s.client.cfg.QoS), s.handleMessage)
}

// Commands returns the channel of decoded candidate commands.
func (s *Subscriber) Commands() <-chan bridge.CandidateCommand {
	return s.ch
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	entityID := entityIDFromTopic(topic)
	if entityID == "" {
		return
	}

	var p commandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		if logger := s.client.getLogger(); logger != nil {
			logger.Warn("mqttbus: malformed command payload", "topic", topic, "error", err)
		}
		return
	}

	cmd := bridge.CandidateCommand{
		EntityID:  entityID,
		Family:    p.Family,
		Value:     p.Value,
		HasAction: p.Action != "",
	}
	if cmd.HasAction {
		cmd.Action = validate.Action(p.Action)
	}

	select {
	case s.ch <- cmd:
	default:
		if logger := s.client.getLogger(); logger != nil {
			logger.Warn("mqttbus: command backlog full, dropping", "topic", topic, "entity_id", entityID)
		}
	}
}

// entityIDFromTopic extracts the entity ID from a "<prefix>/command/<id>"
// topic, returning "" if the topic does not match that shape.
func entityIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	if parts[len(parts)-2] != "command" {
		return ""
	}
	return parts[len(parts)-1]
}
