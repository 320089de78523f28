package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/events"
)

// SubscribeEvents streams daemon events until ctx is cancelled or the
// connection drops. The returned channel is closed when the stream ends.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	out := make(chan events.Event, events.DefaultBufferSize)

	go func() {
		defer close(out)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
		if err != nil {
			logrus.WithError(err).Error("failed to create event stream request")
			return
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				logrus.WithError(err).Error("failed to open event stream")
			}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logrus.Errorf("failed to open event stream: got %d", resp.StatusCode)
			return
		}

		parseEventStream(ctx, bufio.NewScanner(resp.Body), out)
	}()

	return out
}

// parseEventStream reads "event:" and "data:" fields until a blank line
// completes an event.
func parseEventStream(ctx context.Context, scanner *bufio.Scanner, out chan<- events.Event) {
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name != "" || len(data) > 0 {
				ev := events.Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
