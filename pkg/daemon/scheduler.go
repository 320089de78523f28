package daemon

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	preCheckMaxTimes = 30
	preCheckInterval = time.Second * 10
	// idleWait is how long the loop sleeps when nothing is scheduled.
	idleWait = time.Hour * 24
)

type NotifyFunc func(data any)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs Task on a cron schedule. The schedule can be replaced or
// cleared at any time, including while the scheduler is running.
//
// When a run is due, PreCheck must pass first. A failing PreCheck is retried
// every preCheckInterval, up to preCheckMaxTimes, before the run is dropped.
type Scheduler struct {
	Task     TaskFunc
	PreCheck TaskFunc
	OnError  NotifyFunc

	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	nextRun  time.Time
	running  bool

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(task, preCheck TaskFunc, onError NotifyFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		Task:     task,
		PreCheck: preCheck,
		OnError:  onError,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Start runs the scheduler in the background. It is a no-op if already
// running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.loop()
}

// Stop ends the background loop. A stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Schedule replaces the current schedule with cronExpr. Both five-field
// and six-field (with seconds) expressions are accepted, as are
// descriptors like @daily.
func (s *Scheduler) Schedule(cronExpr string) error {
	sh, err := s.parser.Parse(cronExpr)
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid cron expression %q", cronExpr)
	}

	s.mu.Lock()
	s.schedule = sh
	s.nextRun = sh.Next(time.Now())
	s.mu.Unlock()

	s.poke()
	return nil
}

// Unschedule clears the schedule. A running scheduler idles until the next
// Schedule call.
func (s *Scheduler) Unschedule() {
	s.mu.Lock()
	s.schedule = nil
	s.nextRun = time.Time{}
	s.mu.Unlock()

	s.poke()
}

// Status returns the next planned run (zero when unscheduled) and whether
// the loop is running.
func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, s.running
}

func (s *Scheduler) loop() {
	logrus.Debug("scheduler started")
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	var (
		attempts int
		lastErr  string
		retryAt  time.Time
	)
	reset := func() {
		attempts, lastErr, retryAt = 0, "", time.Time{}
	}

	for {
		wait := s.untilNextRun()
		if !retryAt.IsZero() {
			wait = max(time.Until(retryAt), 0)
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
			reset()
			continue
		case <-timer.C:
		}

		due, at := s.due(time.Now())
		if !due {
			reset()
			continue
		}

		entry := logrus.WithField("scheduledAt", at.Format(time.DateTime))

		if s.PreCheck != nil {
			if err := s.PreCheck(); err != nil {
				attempts++
				if err.Error() != lastErr {
					lastErr = err.Error()
					s.sendError(pkgerrors.Wrap(err, "precheck failed"))
				}
				if attempts <= preCheckMaxTimes {
					entry.Debugf("precheck failed (%d/%d): %v; retrying in %s", attempts, preCheckMaxTimes, err, preCheckInterval)
					retryAt = time.Now().Add(preCheckInterval)
					continue
				}
				entry.Warnf("precheck still failing after %d attempts, skipping this run", preCheckMaxTimes)
				reset()
				s.advanceNextRun()
				continue
			}
		}

		entry.Debug("running scheduled task")
		go s.runTask()

		reset()
		s.advanceNextRun()
	}
}

func (s *Scheduler) runTask() {
	if err := s.Task(); err != nil {
		s.sendError(pkgerrors.Wrap(err, "task failed"))
	}
}

func (s *Scheduler) untilNextRun() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil || s.nextRun.IsZero() {
		return idleWait
	}
	return max(time.Until(s.nextRun), 0)
}

func (s *Scheduler) due(now time.Time) (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil || s.nextRun.IsZero() || now.Before(s.nextRun) {
		return false, time.Time{}
	}
	return true, s.nextRun
}

func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	// Skip runs missed while the host was asleep.
	next := s.schedule.Next(s.nextRun)
	if now := time.Now(); next.Before(now) {
		next = s.schedule.Next(now)
	}
	s.nextRun = next
}

// poke wakes the loop so it picks up a schedule change.
func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) sendError(err error) {
	if s.OnError == nil {
		return
	}
	go s.OnError(err)
}
