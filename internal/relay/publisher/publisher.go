// Package publisher announces relayed deliveries to external event streams.
package publisher

import "context"

// Publisher publishes events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error

	// Close flushes and releases any resources held by the publisher.
	Close() error
}
