package publisher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher"
	"github.com/wandering-ai/wecom-agent/pkg/idx"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	d := domain.Delivery{
		ID:          idx.NewAt(at),
		MsgType:     "text",
		AgentID:     1000002,
		Status:      domain.DeliveryStatusPartial,
		MsgID:       "m-1",
		Attempts:    1,
		InvalidUser: "ghost",
		CreatedAt:   at,
	}

	ev, err := publisher.NewEvent(d)
	require.NoError(t, err)
	require.Equal(t, publisher.SchemaDeliveryV1, ev.Schema)
	require.Equal(t, d.ID.String(), ev.DeliveryID)
	require.Equal(t, "partial", ev.Status)
	require.Equal(t, "ghost", ev.InvalidUser)
	require.Equal(t, at, ev.OccurredAt)

	_, err = publisher.NewEvent(domain.Delivery{})
	require.ErrorIs(t, err, publisher.ErrEmptyDeliveryID)
}

func TestNopPublisher(t *testing.T) {
	var p publisher.Publisher = publisher.NewNopPublisher()
	require.NoError(t, p.Publish(context.Background(), &publisher.Event{}))
	require.NoError(t, p.Close())
}
