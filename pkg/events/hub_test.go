package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battmon/battmon/pkg/alert"
)

func TestEventHub_PublishSubscribe(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.Publish(AlertFired, AlertFiredEvent{
		Record: alert.Record{ID: "1", AlertType: alert.LowBattery, Subject: "Low Battery Warning", Timestamp: ts},
		Ts:     ts.Unix(),
	})

	select {
	case ev := <-ch:
		assert.Equal(t, AlertFired, ev.Name)
		payload, err := DecodeAs[AlertFiredEvent](ev)
		require.NoError(t, err)
		assert.Equal(t, alert.LowBattery, payload.Record.AlertType)
		assert.Equal(t, "Low Battery Warning", payload.Record.Subject)
		assert.Equal(t, ts.Unix(), payload.Ts)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	h.Unsubscribe(ch)
	assert.Equal(t, 0, h.Subscribers())
	_, ok := <-ch
	assert.False(t, ok, "channel closed after unsubscribe")

	// Unsubscribing twice is harmless.
	h.Unsubscribe(ch)
}

func TestEventHub_DropsWhenFull(t *testing.T) {
	h := NewEventHub()
	dropped := 0
	h.OnDrop = func(string) { dropped++ }
	ch := h.Subscribe()

	for i := 0; i < DefaultBufferSize+5; i++ {
		h.Publish(StatusUpdated, StatusUpdatedEvent{Ts: int64(i)})
	}

	assert.Len(t, ch, DefaultBufferSize)
	assert.Equal(t, 5, dropped)

	first, err := DecodeAs[StatusUpdatedEvent](<-ch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Ts)
}

func TestEventHub_NilAndBadPayload(t *testing.T) {
	var nilHub *EventHub
	nilHub.Publish(StatusUpdated, nil)

	h := NewEventHub()
	ch := h.Subscribe()
	h.Publish(StatusUpdated, make(chan int))
	assert.Len(t, ch, 0)
}

func TestDecodeAs_Empty(t *testing.T) {
	v, err := DecodeAs[StatusUpdatedEvent](Event{Name: StatusUpdated})
	require.NoError(t, err)
	assert.Zero(t, v.Ts)
}
