package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/config"
	"github.com/battmon/battmon/pkg/events"
	"github.com/battmon/battmon/pkg/power"
	"github.com/battmon/battmon/pkg/utils/ptr"
)

func newTestPoller(reader power.Reader, notifier *fakeNotifier) *Poller {
	return &Poller{
		Reader: reader,
		Engine: alert.NewEngine(notifier, fakeSysInfo{}, 0),
		Conf: config.NewFileFromConfig(&config.RawFileConfig{
			CheckIntervalSeconds: ptr.To(1),
			AlertEmails:          []string{"ops@example.com"},
		}, ""),
		Hub:          events.NewEventHub(),
		ErrorBackoff: 10 * time.Millisecond,
	}
}

func TestPoller_Poll(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	p := newTestPoller(&fakeReader{status: lowBatteryStatus()}, notifier)
	sub := p.Hub.Subscribe()

	assert.Nil(t, p.Current())

	s := p.Poll(context.Background())
	require.NotNil(t, p.Current())
	assert.Equal(t, s, *p.Current())
	assert.Len(t, p.Engine.History(), 3)

	select {
	case ev := <-sub:
		assert.Equal(t, events.StatusUpdated, ev.Name)
		payload, err := events.DecodeAs[events.StatusUpdatedEvent](ev)
		require.NoError(t, err)
		assert.Equal(t, 10, payload.Status.Percentage)
	case <-time.After(time.Second):
		t.Fatal("no status event published")
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	reader := &fakeReader{status: lowBatteryStatus()}
	p := newTestPoller(reader, &fakeNotifier{ok: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Current() != nil }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.Equal(t, 1, reader.readCount(), "next cycle waits for the check interval")
}

func TestPoller_RecoversAndBacksOff(t *testing.T) {
	reader := &fakeReader{status: lowBatteryStatus(), panics: 2}
	p := newTestPoller(reader, &fakeNotifier{ok: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	// Two failed cycles, each followed by the short backoff, then success.
	require.Eventually(t, func() bool { return p.Current() != nil }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, reader.readCount())
	assert.Equal(t, 10, p.Current().Percentage)
}

func TestPoller_DefaultBackoff(t *testing.T) {
	p := &Poller{}
	assert.Equal(t, DefaultErrorBackoff, p.errorBackoff())
}
