package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/battmon/battmon/pkg/power"
)

// condition is one alert rule. Conditions are evaluated in slice order and
// independently of each other.
type condition struct {
	typ       Type
	triggered func(s power.Status, set Settings) bool
	compose   func(s power.Status) (subject, message string)
}

var conditions = []condition{
	{
		typ: LowBattery,
		triggered: func(s power.Status, set Settings) bool {
			return s.Percentage <= set.LowThreshold && !s.ACConnected
		},
		compose: func(s power.Status) (string, string) {
			return "Low Battery Warning", fmt.Sprintf(
				"Battery level is critically low: %d%%\nStatus: %s\nTime remaining: %s",
				s.Percentage, s.ChargeState, s.TimeRemaining)
		},
	},
	{
		typ: CriticalBattery,
		triggered: func(s power.Status, set Settings) bool {
			return s.Percentage <= set.CriticalThreshold && !s.ACConnected
		},
		compose: func(s power.Status) (string, string) {
			return "CRITICAL Battery Alert", fmt.Sprintf(
				"Battery level is CRITICALLY low: %d%%\nStatus: %s\nTime remaining: %s\nIMMEDIATE ACTION REQUIRED!",
				s.Percentage, s.ChargeState, s.TimeRemaining)
		},
	},
	{
		typ: NotCharging,
		triggered: func(s power.Status, _ Settings) bool {
			return s.ACConnected && s.ChargeState == power.NotCharging
		},
		compose: func(s power.Status) (string, string) {
			return "Battery Not Charging", fmt.Sprintf(
				"AC adapter is connected but battery is not charging.\nCurrent level: %d%%\nStatus: %s\nPlease check power adapter and battery health.",
				s.Percentage, s.ChargeState)
		},
	},
	{
		typ: HealthDegraded,
		// Compares the charge percentage, not HealthPercent, against the
		// health threshold.
		triggered: func(s power.Status, set Settings) bool {
			return s.Percentage < set.HealthThreshold && !s.ACConnected
		},
		compose: func(s power.Status) (string, string) {
			return "Battery Health Warning", fmt.Sprintf(
				"Battery health has degraded: %d%%\nCurrent level: %d%%\nConsider replacing the battery soon.",
				s.HealthPercent, s.Percentage)
		},
	},
}

// Conditions describes the alert rules for display.
func Conditions(set Settings) map[string]string {
	return map[string]string{
		string(LowBattery):      fmt.Sprintf("Battery level drops to %d%% or below while on battery power", set.LowThreshold),
		string(CriticalBattery): fmt.Sprintf("Battery level drops to %d%% or below while on battery power", set.CriticalThreshold),
		string(HealthDegraded):  fmt.Sprintf("Battery level is below %d%% while on battery power", set.HealthThreshold),
		string(NotCharging):     "AC adapter connected but battery not charging",
		"cooldown":              fmt.Sprintf("Minimum %s between alerts of the same type", set.Cooldown),
	}
}

func reportMessage(s power.Status) string {
	if !s.BatteryPresent {
		return fmt.Sprintf("No battery detected.\nAC connected: %t", s.ACConnected)
	}
	return fmt.Sprintf(
		"Battery level: %d%%\nStatus: %s\nHealth: %d%%\nTime remaining: %s\nAC connected: %t\nVoltage: %.2f V\nTemperature: %.1f °C\nCycle count: %d",
		s.Percentage, s.ChargeState, s.HealthPercent, s.TimeRemaining, s.ACConnected,
		s.Voltage, s.TemperatureCelsius, s.CycleCount)
}

// emailBody wraps message with host details.
func emailBody(message, hostname, uptime string, at time.Time) string {
	var b strings.Builder
	b.WriteString("Battery Monitor Alert\n\n")
	b.WriteString(message)
	b.WriteString("\n\nSystem Information:\n")
	fmt.Fprintf(&b, "- Hostname: %s\n", hostname)
	fmt.Fprintf(&b, "- Timestamp: %s\n", at.Format(time.DateTime))
	fmt.Fprintf(&b, "- Uptime: %s\n", uptime)
	b.WriteString("\nThis is an automated alert from the battmon battery monitoring system.\n")
	return b.String()
}
