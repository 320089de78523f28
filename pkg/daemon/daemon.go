package daemon

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/config"
	"github.com/battmon/battmon/pkg/events"
	"github.com/battmon/battmon/pkg/metrics"
	"github.com/battmon/battmon/pkg/notify"
	"github.com/battmon/battmon/pkg/power"
	"github.com/battmon/battmon/pkg/sysinfo"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// SystemInfo supplies host details for emails and the system-info API.
type SystemInfo interface {
	alert.HostInfo
	Collect(ctx context.Context) sysinfo.Info
}

// Options replaces the default collaborators of a Daemon. Zero values are
// filled in from the config.
type Options struct {
	Reader   power.Reader
	Notifier notify.Notifier
	SysInfo  SystemInfo
}

// Daemon owns the poller, the alert engine and the HTTP API.
type Daemon struct {
	conf      config.Config
	engine    *alert.Engine
	poller    *Poller
	hub       *events.EventHub
	sysinfo   SystemInfo
	scheduler *Scheduler
	router    *gin.Engine

	// done is closed on shutdown so open event streams return.
	done     chan struct{}
	doneOnce sync.Once
}

func New(conf config.Config, opts Options) *Daemon {
	if opts.Reader == nil {
		opts.Reader = power.NewReader(conf.PowerSupplyPath())
	}
	if opts.Notifier == nil {
		// Resolved per send so a reloaded config takes effect.
		opts.Notifier = notify.Func(func(ctx context.Context, recipients []string, subject, body string) bool {
			return notify.New(conf.SMTP()).Send(ctx, recipients, subject, body)
		})
	}
	if opts.SysInfo == nil {
		opts.SysInfo = sysinfo.NewCollector()
	}

	hub := events.NewEventHub()
	hub.OnDrop = func(name string) {
		metrics.EventsDropped.WithLabelValues(name).Inc()
	}

	engine := alert.NewEngine(opts.Notifier, opts.SysInfo, alert.DefaultHistorySize)
	engine.OnRecord = func(r alert.Record) {
		metrics.AlertsTotal.WithLabelValues(string(r.AlertType), boolLabel(r.Sent)).Inc()
		hub.Publish(events.AlertFired, events.AlertFiredEvent{Record: r, Ts: r.Timestamp.Unix()})
	}

	d := &Daemon{
		conf:    conf,
		engine:  engine,
		hub:     hub,
		sysinfo: opts.SysInfo,
		poller: &Poller{
			Reader: opts.Reader,
			Engine: engine,
			Conf:   conf,
			Hub:    hub,
		},
		done: make(chan struct{}),
	}
	d.scheduler = NewScheduler(d.sendReport, d.reportPreCheck, func(data any) {
		logrus.Errorf("scheduled report: %v", data)
	})
	d.router = d.setupRoutes()

	return d
}

func (d *Daemon) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.Use(ginMetrics())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	router.GET("/", d.index)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/battery-status", d.getBatteryStatus)
	api.GET("/alert-history", d.getAlertHistory)
	api.GET("/send-mail", d.sendMail)
	api.GET("/system-info", d.getSystemInfo)
	api.GET("/alert-conditions", d.getAlertConditions)
	api.GET("/events", d.streamEvents)
	api.GET("/version", getVersion)

	return router
}

// Handler returns the HTTP API.
func (d *Daemon) Handler() http.Handler {
	return d.router
}

// Poller returns the poller driving this daemon.
func (d *Daemon) Poller() *Poller {
	return d.poller
}

// Engine returns the alert engine.
func (d *Daemon) Engine() *alert.Engine {
	return d.engine
}

// applySchedule makes the report scheduler follow the config.
func (d *Daemon) applySchedule() {
	expr := d.conf.ReportSchedule()
	if expr == "" {
		d.scheduler.Unschedule()
		return
	}
	err := d.scheduler.Schedule(expr)
	if err != nil {
		logrus.WithError(err).WithField("reportSchedule", expr).Error("invalid report schedule, reports disabled")
		d.scheduler.Unschedule()
		return
	}
	next, _ := d.scheduler.Status()
	logrus.WithField("nextRun", next.Format(time.DateTime)).Info("status report scheduled")
}

func (d *Daemon) reportPreCheck() error {
	if d.poller.Current() == nil {
		return errors.New("no battery status polled yet")
	}
	return nil
}

func (d *Daemon) sendReport() error {
	s := d.poller.Current()
	if s == nil {
		return errors.New("no battery status polled yet")
	}
	rec := d.engine.Report(context.Background(), *s, d.conf.AlertEmails())
	if !rec.Sent {
		return pkgerrors.Errorf("report %s was not delivered", rec.ID)
	}
	return nil
}

func (d *Daemon) shutdownStreams() {
	d.doneOnce.Do(func() { close(d.done) })
}

// Run loads the config at configPath and runs the daemon until SIGINT or
// SIGTERM. SIGHUP reloads the config.
func Run(configPath string) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	d := New(conf, Options{})

	// Create the socket to listen on:
	l, err := net.Listen("tcp", conf.ListenAddr())
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", conf.ListenAddr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		_ = d.poller.Run(ctx)
	}()

	d.applySchedule()
	d.scheduler.Start()

	// Receive SIGHUP to reload config
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				err := conf.Load()
				if err != nil {
					logrus.Errorf("failed to reload config: %v", err)
					continue
				}
				logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
				d.applySchedule()
			}
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	var runErr error
	select {
	case sig := <-sigc:
		logrus.Infof("caught signal \"%s\": shutting down.", sig)
	case err := <-serveErr:
		runErr = pkgerrors.Wrapf(err, "http server failed")
		logrus.Errorf("%v: shutting down.", runErr)
	}

	logrus.Info("shutting down http server")
	d.shutdownStreams()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	logrus.Info("stopping scheduler")
	d.scheduler.Stop()

	logrus.Info("stopping poller")
	cancel()
	<-pollerDone

	logrus.Info("exiting")
	return runErr
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
