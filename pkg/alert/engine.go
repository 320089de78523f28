package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/notify"
	"github.com/battmon/battmon/pkg/power"
)

// HostInfo supplies the host details included in email bodies.
type HostInfo interface {
	Hostname() string
	Uptime(ctx context.Context) string
}

// Engine decides which alerts fire for a power status, sends them, and
// keeps the cooldown table and the alert history.
type Engine struct {
	// Now is the engine clock. Defaults to time.Now.
	Now func() time.Time
	// OnRecord, if set, is called after each record is appended.
	OnRecord func(Record)

	notifier notify.Notifier
	host     HostInfo
	history  *History

	// evalMu serializes Evaluate so the cooldown check and update for a
	// type happen as one step.
	evalMu    sync.Mutex
	mu        sync.RWMutex
	lastFired map[Type]time.Time
}

// NewEngine returns an Engine. host may be nil.
func NewEngine(notifier notify.Notifier, host HostInfo, historySize int) *Engine {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{
		Now:       time.Now,
		notifier:  notifier,
		host:      host,
		history:   NewHistory(historySize),
		lastFired: make(map[Type]time.Time),
	}
}

// Evaluate checks every alert condition against s, in order, and sends the
// ones whose condition holds and whose cooldown has elapsed. The cooldown
// timestamp is updated once a send is attempted, whether or not delivery
// succeeded. It returns the records produced in this call.
func (e *Engine) Evaluate(ctx context.Context, s power.Status, set Settings) []Record {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	now := e.now()
	var fired []Record

	for _, c := range conditions {
		if !c.triggered(s, set) {
			continue
		}

		if !e.eligible(c.typ, now, set.Cooldown) {
			logrus.WithFields(logrus.Fields{
				"alertType": c.typ,
				"cooldown":  set.Cooldown,
			}).Trace("alert suppressed by cooldown")
			continue
		}

		subject, message := c.compose(s)
		rec := e.deliver(ctx, c.typ, subject, message, set.Recipients, now)

		e.mu.Lock()
		e.lastFired[c.typ] = now
		e.mu.Unlock()

		fired = append(fired, rec)
	}

	return fired
}

// Send delivers an ad-hoc message, bypassing conditions and cooldown. The
// attempt is recorded in the history.
func (e *Engine) Send(ctx context.Context, subject, message string, recipients []string) Record {
	return e.deliver(ctx, Manual, subject, message, recipients, e.now())
}

// Report sends a summary of s. The attempt is recorded in the history.
func (e *Engine) Report(ctx context.Context, s power.Status, recipients []string) Record {
	return e.deliver(ctx, Report, "Battery Status Report", reportMessage(s), recipients, e.now())
}

// History returns the most recent RecentCount records, oldest first.
func (e *Engine) History() []Record {
	return e.history.GetLastRecords(RecentCount)
}

// LastFired returns a copy of the cooldown table.
func (e *Engine) LastFired() map[Type]time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[Type]time.Time, len(e.lastFired))
	for k, v := range e.lastFired {
		out[k] = v
	}
	return out
}

// SetLastFired overrides the cooldown timestamp of t.
func (e *Engine) SetLastFired(t Type, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastFired[t] = at
}

func (e *Engine) eligible(t Type, now time.Time, cooldown time.Duration) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	last, ok := e.lastFired[t]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

func (e *Engine) deliver(ctx context.Context, t Type, subject, message string, recipients []string, at time.Time) Record {
	hostname, uptime := power.UnknownText, power.UnknownText
	if e.host != nil {
		hostname = e.host.Hostname()
		uptime = e.host.Uptime(ctx)
	}

	sent := e.notifier.Send(ctx, recipients, subject, emailBody(message, hostname, uptime, at))

	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: at,
		AlertType: t,
		Subject:   subject,
		Message:   message,
		Sent:      sent,
	}
	e.history.AddRecord(rec)

	entry := logrus.WithFields(logrus.Fields{
		"alertType":  t,
		"recipients": recipients,
	})
	if sent {
		entry.Infof("alert sent successfully: %s", subject)
	} else {
		entry.Errorf("failed to send alert: %s", subject)
	}

	if e.OnRecord != nil {
		e.OnRecord(rec)
	}

	return rec
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	// Strip monotonic clock reading; wall clock is what matters across sleep.
	return e.Now().Round(0)
}
