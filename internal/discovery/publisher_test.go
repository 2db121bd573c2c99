package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/rvcbridge/internal/rvc/entity"
)

type fakeRawPublisher struct {
	topic   string
	payload []byte
	err     error
}

func (f *fakeRawPublisher) Publish(topic string, payload []byte) error {
	f.topic = topic
	f.payload = payload
	return f.err
}

func TestAnnouncePublishesRenderedMessage(t *testing.T) {
	fake := &fakeRawPublisher{}
	pub := NewPublisher(fake, "rvc/discovery", "rvc-bridge-1")

	err := pub.Announce(context.Background(), []entity.Descriptor{
		{EntityID: "light_ceiling", Kind: entity.KindLight, SupportsBrightness: true},
	})
	if err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	if fake.topic != "rvc/discovery" {
		t.Errorf("topic = %q, want rvc/discovery", fake.topic)
	}

	var msg Message
	if err := json.Unmarshal(fake.payload, &msg); err != nil {
		t.Fatalf("payload did not decode: %v", err)
	}
	if msg.Bridge != "rvc-bridge-1" || len(msg.Entities) != 1 {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestAnnouncePropagatesPublishError(t *testing.T) {
	wantErr := errors.New("broker unreachable")
	fake := &fakeRawPublisher{err: wantErr}
	pub := NewPublisher(fake, "rvc/discovery", "rvc-bridge-1")

	err := pub.Announce(context.Background(), nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
