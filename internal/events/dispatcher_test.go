package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var received []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		received = append(received, e)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, EntityID: "t-1"})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "t-1", received[0].EntityID)
}

func TestDispatcherIgnoresOtherEventTypes(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	called := false
	d.Subscribe(EventTicketCreated, func(_ context.Context, _ Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventLocationCreated, EntityID: "l-1"})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDispatcherHandlerFailureDoesNotBlockOthers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var order []string
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, _ Event) error {
		order = append(order, "first")
		return errors.New("handler exploded")
	})
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, _ Event) error {
		order = append(order, "second")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketStatusChanged, EntityID: "t-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}
