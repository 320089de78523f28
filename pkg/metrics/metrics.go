package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battmon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "battmon_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Poller metrics
	PollCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "battmon_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battmon_panics_recovered_total",
			Help: "Total number of recovered panics",
		},
		[]string{"component"},
	)

	LastPollTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_last_poll_timestamp_seconds",
			Help: "Unix time of the last completed poll",
		},
	)

	// Battery metrics
	BatteryPresent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_battery_present",
			Help: "1 if a battery is present",
		},
	)

	BatteryPercentage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_battery_percentage",
			Help: "Battery charge in percent",
		},
	)

	BatteryHealthPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_battery_health_percent",
			Help: "Full charge capacity relative to design capacity in percent",
		},
	)

	BatteryVoltage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_battery_voltage_volts",
			Help: "Battery voltage",
		},
	)

	BatteryTemperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_battery_temperature_celsius",
			Help: "Battery temperature",
		},
	)

	ACConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battmon_ac_connected",
			Help: "1 if AC power is connected",
		},
	)

	// Alert metrics
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battmon_alerts_total",
			Help: "Total number of attempted notifications",
		},
		[]string{"alert_type", "sent"}, // sent: true, false
	)

	// SSE metrics
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battmon_events_dropped_total",
			Help: "Total number of events dropped for slow subscribers",
		},
		[]string{"event"},
	)
)

// BoolGauge converts b to a gauge value.
func BoolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
