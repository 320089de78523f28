package power

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultStatus returns the status reported when nothing could be read.
func DefaultStatus(at time.Time) Status {
	return Status{
		Timestamp:     at,
		ChargeState:   Unknown,
		HealthPercent: DefaultHealthPercent,
		TimeRemaining: UnknownText,
		Technology:    UnknownText,
		Manufacturer:  UnknownText,
		Model:         UnknownText,
	}
}

// Evaluate turns raw readings into a Status. It does no I/O.
func Evaluate(raw Raw, at time.Time) Status {
	s := DefaultStatus(at)
	s.ACConnected = raw.ACConnected
	s.Source = raw.Source

	if !raw.BatteryFound || raw.Present == nil || !*raw.Present {
		return s
	}
	s.BatteryPresent = true

	if raw.Capacity != nil {
		s.Percentage = clampPercent(*raw.Capacity)
	}
	if raw.Status != nil {
		s.ChargeState = ParseChargeState(strings.TrimSpace(*raw.Status))
	}
	if raw.VoltageMicroVolts != nil {
		s.Voltage = MicroToUnit(*raw.VoltageMicroVolts)
	}
	if raw.CurrentMicroAmps != nil {
		s.CurrentAmps = MicroToUnit(*raw.CurrentMicroAmps)
	}
	if raw.TemperatureDeciCelsius != nil {
		s.TemperatureCelsius = DeciToUnit(*raw.TemperatureDeciCelsius)
	}
	if raw.ChargeFull != nil {
		s.CapacityFull = int(*raw.ChargeFull)
	}
	if raw.ChargeFullDesign != nil {
		s.CapacityDesign = int(*raw.ChargeFullDesign)
	}
	if raw.ChargeFull != nil && raw.ChargeFullDesign != nil {
		s.HealthPercent = HealthPercent(*raw.ChargeFull, *raw.ChargeFullDesign)
	}
	if raw.CycleCount != nil {
		s.CycleCount = int(*raw.CycleCount)
	}
	s.Technology = textOrUnknown(raw.Technology)
	s.Manufacturer = textOrUnknown(raw.Manufacturer)
	s.Model = textOrUnknown(raw.Model)

	s.TimeRemaining = TimeRemaining(s.ChargeState, s.CurrentAmps, raw.ChargeNow, int64(s.CapacityFull))

	return s
}

// HealthPercent is round(full / design * 100), or DefaultHealthPercent when
// design is not positive.
func HealthPercent(full, design int64) int {
	if design <= 0 {
		return DefaultHealthPercent
	}
	return int(math.Round(float64(full) / float64(design) * 100))
}

// MicroToUnit converts a micro-unit reading (µV, µA) to units rounded to
// 2 decimals.
func MicroToUnit(v int64) float64 {
	return roundTo(float64(v)/1_000_000, 2)
}

// DeciToUnit converts tenths of a unit to units rounded to 1 decimal.
func DeciToUnit(v int64) float64 {
	return roundTo(float64(v)/10, 1)
}

// TimeRemaining estimates time until empty (discharging) or full (charging).
// chargeNow and capacityFull are in µAh, currentAmps in A.
func TimeRemaining(state ChargeState, currentAmps float64, chargeNow *int64, capacityFull int64) string {
	if currentAmps == 0 || chargeNow == nil {
		return UnknownText
	}

	var hours float64
	switch state {
	case Discharging:
		hours = math.Abs(float64(*chargeNow)) / (math.Abs(currentAmps) * 1_000_000)
	case Charging:
		if currentAmps < 0 || capacityFull <= 0 {
			return UnknownText
		}
		hours = float64(capacityFull-*chargeNow) / (currentAmps * 1_000_000)
	default:
		return UnknownText
	}

	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		logrus.WithFields(logrus.Fields{
			"state":       state,
			"currentAmps": currentAmps,
			"chargeNow":   *chargeNow,
		}).Debug("cannot estimate time remaining")
		return UnknownText
	}

	return FormatHours(hours)
}

// FormatHours renders fractional hours as "{H}h {M}m", truncating both parts.
func FormatHours(hours float64) string {
	h := math.Trunc(hours)
	m := math.Trunc((hours - h) * 60)
	return fmt.Sprintf("%dh %dm", int64(h), int64(m))
}

func clampPercent(v int64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}

func textOrUnknown(s *string) string {
	if s == nil {
		return UnknownText
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return UnknownText
	}
	return t
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
