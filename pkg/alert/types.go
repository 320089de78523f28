package alert

import (
	"time"
)

// Type identifies an alert kind. Each cooldown-tracked type fires at most
// once per cooldown window.
type Type string

const (
	LowBattery      Type = "low_battery"
	CriticalBattery Type = "critical_battery"
	NotCharging     Type = "not_charging"
	HealthDegraded  Type = "battery_health"

	// Manual records an ad-hoc send. Not subject to cooldown.
	Manual Type = "manual"
	// Report records a scheduled status report. Not subject to cooldown.
	Report Type = "report"
)

// Types lists the cooldown-tracked types in evaluation order.
var Types = []Type{LowBattery, CriticalBattery, NotCharging, HealthDegraded}

// Record is one attempted notification. Records are never modified after
// they are appended to the history.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AlertType Type      `json:"alertType"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Sent      bool      `json:"sent"`
}

// Settings are the thresholds and delivery targets for one evaluation.
// Thresholds are percentages.
type Settings struct {
	LowThreshold      int
	CriticalThreshold int
	HealthThreshold   int
	Cooldown          time.Duration
	Recipients        []string
}
