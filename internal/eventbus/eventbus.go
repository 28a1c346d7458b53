package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"linkapp/internal/shared/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ClickTopic carries click events from the resolver to the batch consumer.
const ClickTopic = "link.clicks"

// Bus wraps Watermill pub/sub for click events. The go-channel transport
// resends messages on Nack, which gives the consumer at-least-once delivery
// with broker-managed redelivery.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// New creates an event bus using Go channels.
func New(logger watermill.LoggerAdapter) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			Persistent:          false,
		},
		logger,
	)

	return &Bus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Publisher returns the Watermill publisher.
func (b *Bus) Publisher() message.Publisher {
	return b.pubsub
}

// Subscriber returns the Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Close closes the event bus.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Publisher publishes click events to the bus.
type Publisher struct {
	publisher message.Publisher
}

// NewPublisher creates a click event publisher.
func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{publisher: publisher}
}

// PublishClick publishes one click event to the click topic.
func (p *Publisher) PublishClick(_ context.Context, event events.ClickEvent) error {
	msg, err := EventToMessage(event)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ClickTopic, msg)
}

// EventToMessage converts a click event to a Watermill message. The event ID
// doubles as the message UUID.
func EventToMessage(event events.ClickEvent) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal click event: %w", err)
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set("short_code", event.ShortCode)

	return msg, nil
}

// MessageToEvent extracts the click event from a Watermill message.
func MessageToEvent(msg *message.Message) (events.ClickEvent, error) {
	var event events.ClickEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return events.ClickEvent{}, fmt.Errorf("unmarshal click event: %w", err)
	}
	return event, nil
}
