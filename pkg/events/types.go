package events

import (
	"encoding/json"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/power"
)

// Event name constants
const (
	// StatusUpdated carries a StatusUpdatedEvent after every poll.
	StatusUpdated = "status.updated"
	// AlertFired carries an AlertFiredEvent for every attempted notification.
	AlertFired = "alert.fired"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// StatusUpdatedEvent is the typed payload for status.updated.
type StatusUpdatedEvent struct {
	Status power.Status `json:"status"`
	Ts     int64        `json:"ts"`
}

// AlertFiredEvent is the typed payload for alert.fired.
type AlertFiredEvent struct {
	Record alert.Record `json:"record"`
	Ts     int64        `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.AlertFiredEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Record.Subject)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
