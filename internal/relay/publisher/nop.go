package publisher

import "context"

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

func (n *NopPublisher) Publish(context.Context, *Event) error { return nil }

func (n *NopPublisher) Close() error { return nil }
