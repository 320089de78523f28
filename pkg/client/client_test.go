package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/events"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/battery-status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"batteryPresent": true, "percentage": 42, "chargeState": "Charging", "acConnected": true}`)
	})
	mux.HandleFunc("/api/alert-history", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "a1", "alertType": "low_battery", "subject": "Low Battery Warning", "sent": true}]`)
	})
	mux.HandleFunc("/api/send-mail", func(w http.ResponseWriter, r *http.Request) {
		subject := r.URL.Query().Get("subject")
		if subject == "" {
			subject = "Test Subject"
		}
		fmt.Fprintf(w, `{"subject": %q, "message": %q, "sent": false}`, subject, r.URL.Query().Get("message"))
	})
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `"v1.2.3"`)
	})
	mux.HandleFunc("/api/system-info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hostname": "pve-01", "uptime": "1h 0m", "loadAverage": "0.00 0.00 0.00", "cpuFrequency": "Unknown"}`)
	})
	mux.HandleFunc("/api/alert-conditions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAPIs(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	s, err := c.GetBatteryStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 42, s.Percentage)
	assert.True(t, s.ACConnected)

	records, err := c.GetAlertHistory(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, alert.LowBattery, records[0].AlertType)

	res, err := c.SendMail(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Test Subject", res.Subject)
	assert.False(t, res.Sent)

	res, err = c.SendMail(ctx, "Hello there", "body & more")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", res.Subject)
	assert.Equal(t, "body & more", res.Message)

	v, err := c.GetVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", v)

	info, err := c.GetSystemInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pve-01", info.Hostname)

	_, err = c.GetAlertConditions(ctx)
	assert.ErrorContains(t, err, "got 500: boom")
}

func TestClient_EmptyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	s, err := NewClient(srv.URL).GetBatteryStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	_, err := NewClient(srv.URL).Get(context.Background(), "/api/unknown")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Grab a free port and close it so nothing listens there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewClient(addr).GetVersion(context.Background())
	assert.True(t, errors.Is(err, ErrDaemonNotRunning), "got %v", err)
}

func TestNewClient_BaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").baseURL)
	assert.Equal(t, "http://localhost:9000", NewClient("localhost:9000").baseURL)
	assert.Equal(t, "https://battmon.example.com", NewClient("https://battmon.example.com/").baseURL)
}

func TestParseEventStream(t *testing.T) {
	stream := strings.Join([]string{
		": keepalive",
		"event:status.updated",
		`data:{"status":{"percentage":55},"ts":1}`,
		"",
		"event: alert.fired",
		`data: {"record":{"subject":"x"},`,
		`data: "ts":2}`,
		"",
		"",
	}, "\n")

	out := make(chan events.Event, 4)
	parseEventStream(context.Background(), bufio.NewScanner(strings.NewReader(stream)), out)
	close(out)

	var got []events.Event
	for ev := range out {
		got = append(got, ev)
	}
	require.Len(t, got, 2)

	assert.Equal(t, events.StatusUpdated, got[0].Name)
	status, err := events.DecodeAs[events.StatusUpdatedEvent](got[0])
	require.NoError(t, err)
	assert.Equal(t, 55, status.Status.Percentage)

	assert.Equal(t, events.AlertFired, got[1].Name)
	fired, err := events.DecodeAs[events.AlertFiredEvent](got[1])
	require.NoError(t, err)
	assert.Equal(t, "x", fired.Record.Subject)
	assert.Equal(t, int64(2), fired.Ts)
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event:alert.fired\ndata:{\"record\":{\"subject\":\"ping\"},\"ts\":3}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewClient(srv.URL).SubscribeEvents(ctx)

	select {
	case ev := <-ch:
		assert.Equal(t, events.AlertFired, ev.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
