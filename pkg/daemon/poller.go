package daemon

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/config"
	"github.com/battmon/battmon/pkg/events"
	"github.com/battmon/battmon/pkg/metrics"
	"github.com/battmon/battmon/pkg/power"
)

// DefaultErrorBackoff is the wait after a failed poll cycle.
const DefaultErrorBackoff = 30 * time.Second

// Poller runs the read, evaluate and alert cycle. Only one cycle runs at a
// time; readers of the current status never block it.
type Poller struct {
	Reader power.Reader
	Engine *alert.Engine
	Conf   config.Config
	Hub    *events.EventHub

	ErrorBackoff time.Duration

	current atomic.Pointer[power.Status]
}

// Current returns the last polled status, or nil before the first poll.
func (p *Poller) Current() *power.Status {
	return p.current.Load()
}

// Run polls until ctx is cancelled. The next cycle starts the configured
// check interval after the previous one finished, or ErrorBackoff after a
// cycle that failed.
func (p *Poller) Run(ctx context.Context) error {
	logrus.Debugln("poll loop starts")

	for {
		wait := p.Conf.CheckInterval()

		err := p.safePoll(ctx)
		if err != nil {
			logrus.WithError(err).Errorf("error in monitoring loop, retrying in %s", p.errorBackoff())
			wait = p.errorBackoff()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logrus.Debugln("poll loop stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Poll runs one cycle and returns the status it stored.
func (p *Poller) Poll(ctx context.Context) power.Status {
	s := p.Reader.Read(ctx)
	p.current.Store(&s)
	recordStatus(s)

	logrus.WithFields(logrus.Fields{
		"percentage":    s.Percentage,
		"chargeState":   s.ChargeState,
		"acConnected":   s.ACConnected,
		"timeRemaining": s.TimeRemaining,
	}).Debug("battery status polled")

	p.Hub.Publish(events.StatusUpdated, events.StatusUpdatedEvent{Status: s, Ts: s.Timestamp.Unix()})

	p.Engine.Evaluate(ctx, s, config.AlertSettings(p.Conf))

	metrics.PollCyclesTotal.Inc()
	metrics.LastPollTimestamp.Set(float64(s.Timestamp.Unix()))

	return s
}

func (p *Poller) safePoll(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues("poller").Inc()
			logrus.WithField("stack", string(debug.Stack())).Debug("poll cycle panic")
			err = fmt.Errorf("poll cycle panicked: %v", r)
		}
	}()

	p.Poll(ctx)
	return nil
}

func (p *Poller) errorBackoff() time.Duration {
	if p.ErrorBackoff <= 0 {
		return DefaultErrorBackoff
	}
	return p.ErrorBackoff
}

func recordStatus(s power.Status) {
	metrics.BatteryPresent.Set(metrics.BoolGauge(s.BatteryPresent))
	metrics.ACConnected.Set(metrics.BoolGauge(s.ACConnected))
	metrics.BatteryPercentage.Set(float64(s.Percentage))
	metrics.BatteryHealthPercent.Set(float64(s.HealthPercent))
	metrics.BatteryVoltage.Set(s.Voltage)
	metrics.BatteryTemperature.Set(s.TemperatureCelsius)
}
