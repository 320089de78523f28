package power

import (
	"context"
	"time"
)

// ChargeState is the power-flow mode of the battery. Values use the
// spelling the kernel writes to the power_supply "status" file.
type ChargeState string

const (
	Charging    ChargeState = "Charging"
	Discharging ChargeState = "Discharging"
	NotCharging ChargeState = "Not charging"
	Full        ChargeState = "Full"
	Unknown     ChargeState = "Unknown"
)

// ParseChargeState maps a raw status string to a ChargeState.
// Anything unrecognized is Unknown.
func ParseChargeState(s string) ChargeState {
	switch ChargeState(s) {
	case Charging, Discharging, NotCharging, Full:
		return ChargeState(s)
	default:
		return Unknown
	}
}

const (
	// UnknownText is the default for free-text fields and time remaining.
	UnknownText = "Unknown"
	// DefaultHealthPercent is reported when design capacity is not known.
	DefaultHealthPercent = 100
)

// Source names the reader that produced a Status.
const (
	SourceSysfs   = "sysfs"
	SourceBattery = "battery"
)

// Status is an immutable snapshot of the host power state.
type Status struct {
	Timestamp          time.Time   `json:"timestamp"`
	BatteryPresent     bool        `json:"batteryPresent"`
	Percentage         int         `json:"percentage"`
	ChargeState        ChargeState `json:"chargeState"`
	HealthPercent      int         `json:"healthPercent"`
	Voltage            float64     `json:"voltage"`
	CurrentAmps        float64     `json:"currentAmps"`
	TemperatureCelsius float64     `json:"temperatureCelsius"`
	TimeRemaining      string      `json:"timeRemaining"`
	ACConnected        bool        `json:"acConnected"`
	CycleCount         int         `json:"cycleCount"`
	CapacityFull       int         `json:"capacityFull"`
	CapacityDesign     int         `json:"capacityDesign"`
	Technology         string      `json:"technology"`
	Manufacturer       string      `json:"manufacturer"`
	Model              string      `json:"model"`
	Source             string      `json:"source,omitempty"`
}

// Raw holds unconverted readings as exposed by the OS. A nil field means
// the value could not be read.
//
// Units:
// - VoltageMicroVolts: µV
// - CurrentMicroAmps: µA, negative while discharging on some drivers
// - TemperatureDeciCelsius: tenths of °C
// - ChargeFull, ChargeFullDesign, ChargeNow: µAh
type Raw struct {
	BatteryFound           bool
	Present                *bool
	ACConnected            bool
	Capacity               *int64
	Status                 *string
	VoltageMicroVolts      *int64
	CurrentMicroAmps       *int64
	TemperatureDeciCelsius *int64
	ChargeFull             *int64
	ChargeFullDesign       *int64
	ChargeNow              *int64
	CycleCount             *int64
	Technology             *string
	Manufacturer           *string
	Model                  *string
	Source                 string
}

// Reader produces a Status. Implementations never fail: unreadable data
// degrades to defaults.
type Reader interface {
	Read(ctx context.Context) Status
}
