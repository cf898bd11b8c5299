package messaging

import "context"

// Broker publishes lifecycle events to downstream consumers. Publishing is
// fire-and-forget from the caller's perspective; failures are reported but
// never block the originating operation.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channels for lab lifecycle events.
const (
	ChannelTestCreated    = "lab.test.created"
	ChannelTestUpdated    = "lab.test.updated"
	ChannelTestCompleted  = "lab.test.completed"
	ChannelSampleUpdated  = "lab.sample.updated"
	ChannelTestTypeSeeded = "lab.testtype.seeded"
)
