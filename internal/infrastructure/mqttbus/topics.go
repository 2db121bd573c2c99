// Package mqttbus wraps paho.mqtt.golang to implement the bridge's
// Publisher and Subscriber collaborators: state/ack/error publication and
// command ingestion over the five channels spec.md §6 names.
package mqttbus

import "fmt"

// Topics builds the bridge's MQTT topic names under a configurable
// prefix, mirroring the teacher's topic-builder struct pattern.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return "rvc"
	}
	return t.Prefix
}

// State returns the topic an entity's channel state update is published
// on. Example: rvc/state/light_ceiling/state.
func (t Topics) State(entityID, channel string) string {
	return fmt.Sprintf("%s/state/%s/%s", t.prefix(), entityID, channel)
}

// Command returns the topic subscribed to for inbound commands for one
// entity.
func (t Topics) Command(entityID string) string {
	return fmt.Sprintf("%s/command/%s", t.prefix(), entityID)
}

// CommandSubscribeFilter returns the wildcard filter matching every
// entity's command topic.
func (t Topics) CommandSubscribeFilter() string {
	return fmt.Sprintf("%s/command/+", t.prefix())
}

// Ack returns the topic a successful command's acknowledgement is
// published on.
func (t Topics) Ack(entityID string) string {
	return fmt.Sprintf("%s/ack/%s", t.prefix(), entityID)
}

// Error returns the topic a rejected or failed command's error is
// published on.
func (t Topics) Error(entityID string) string {
	return fmt.Sprintf("%s/error/%s", t.prefix(), entityID)
}

// Discovery returns the topic the discovery announcement is published on.
func (t Topics) Discovery() string {
	return fmt.Sprintf("%s/discovery", t.prefix())
}

// SystemStatus returns the topic the bridge's own online/offline status
// (including its Last Will and Testament) is published on.
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}
