package power

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/battmon/battmon/pkg/utils/ptr"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func presentRaw() Raw {
	return Raw{BatteryFound: true, Present: ptr.To(true), Source: SourceSysfs}
}

func TestEvaluate_NoBattery(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
	}{
		{
			name: "battery not found",
			raw: Raw{
				ACConnected: true,
				Capacity:    ptr.To(int64(80)),
				Status:      ptr.To("Charging"),
			},
		},
		{
			name: "battery found but not present",
			raw: Raw{
				BatteryFound:      true,
				Present:           ptr.To(false),
				ACConnected:       true,
				Capacity:          ptr.To(int64(80)),
				VoltageMicroVolts: ptr.To(int64(12000000)),
				ChargeFull:        ptr.To(int64(4000000)),
				ChargeFullDesign:  ptr.To(int64(5000000)),
			},
		},
		{
			name: "present flag missing",
			raw: Raw{
				BatteryFound: true,
				ACConnected:  true,
				Capacity:     ptr.To(int64(80)),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.raw, testTime)

			want := DefaultStatus(testTime)
			want.ACConnected = true
			assert.Equal(t, want, got)
			assert.False(t, got.BatteryPresent)
			assert.Equal(t, Unknown, got.ChargeState)
			assert.Equal(t, 100, got.HealthPercent)
			assert.Zero(t, got.Voltage)
			assert.Zero(t, got.CurrentAmps)
			assert.Zero(t, got.TemperatureCelsius)
			assert.Zero(t, got.CycleCount)
			assert.Equal(t, "Unknown", got.TimeRemaining)
		})
	}
}

func TestEvaluate_AllFieldsAbsent(t *testing.T) {
	got := Evaluate(presentRaw(), testTime)

	assert.True(t, got.BatteryPresent)
	assert.Equal(t, 0, got.Percentage)
	assert.Equal(t, Unknown, got.ChargeState)
	assert.Equal(t, 100, got.HealthPercent)
	assert.Equal(t, "Unknown", got.TimeRemaining)
	assert.Equal(t, "Unknown", got.Technology)
	assert.Equal(t, "Unknown", got.Manufacturer)
	assert.Equal(t, "Unknown", got.Model)
}

func TestEvaluate_Conversions(t *testing.T) {
	raw := presentRaw()
	raw.Capacity = ptr.To(int64(57))
	raw.Status = ptr.To("Discharging")
	raw.VoltageMicroVolts = ptr.To(int64(12000000))
	raw.CurrentMicroAmps = ptr.To(int64(-500000))
	raw.TemperatureDeciCelsius = ptr.To(int64(350))
	raw.ChargeFull = ptr.To(int64(4500000))
	raw.ChargeFullDesign = ptr.To(int64(5000000))
	raw.ChargeNow = ptr.To(int64(1250000))
	raw.CycleCount = ptr.To(int64(321))
	raw.Technology = ptr.To("Li-ion")
	raw.Manufacturer = ptr.To("SMP")
	raw.Model = ptr.To("5B10W13930")

	got := Evaluate(raw, testTime)

	assert.Equal(t, testTime, got.Timestamp)
	assert.Equal(t, 57, got.Percentage)
	assert.Equal(t, Discharging, got.ChargeState)
	assert.Equal(t, 12.0, got.Voltage)
	assert.Equal(t, -0.5, got.CurrentAmps)
	assert.Equal(t, 35.0, got.TemperatureCelsius)
	assert.Equal(t, 90, got.HealthPercent)
	assert.Equal(t, 4500000, got.CapacityFull)
	assert.Equal(t, 5000000, got.CapacityDesign)
	assert.Equal(t, 321, got.CycleCount)
	assert.Equal(t, "2h 30m", got.TimeRemaining)
	assert.Equal(t, "Li-ion", got.Technology)
	assert.Equal(t, "SMP", got.Manufacturer)
	assert.Equal(t, "5B10W13930", got.Model)
}

func TestEvaluate_PercentageClamped(t *testing.T) {
	raw := presentRaw()
	raw.Capacity = ptr.To(int64(104))
	assert.Equal(t, 100, Evaluate(raw, testTime).Percentage)

	raw.Capacity = ptr.To(int64(-3))
	assert.Equal(t, 0, Evaluate(raw, testTime).Percentage)
}

func TestHealthPercent(t *testing.T) {
	tests := []struct {
		full, design int64
		want         int
	}{
		{full: 4500000, design: 5000000, want: 90},
		{full: 5000000, design: 5000000, want: 100},
		{full: 1, design: 3, want: 33},
		{full: 2, design: 3, want: 67},
		{full: 5500, design: 5000, want: 110},
		{full: 4000, design: 0, want: 100},
		{full: 4000, design: -1, want: 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthPercent(tt.full, tt.design), "full=%d design=%d", tt.full, tt.design)
	}
}

func TestHealthPercent_DesignAbsent(t *testing.T) {
	raw := presentRaw()
	raw.ChargeFull = ptr.To(int64(4000000))

	got := Evaluate(raw, testTime)
	assert.Equal(t, 100, got.HealthPercent)
	assert.Equal(t, 4000000, got.CapacityFull)
	assert.Equal(t, 0, got.CapacityDesign)
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, 12.0, MicroToUnit(12000000))
	assert.Equal(t, -0.5, MicroToUnit(-500000))
	assert.Equal(t, 11.57, MicroToUnit(11567000))
	assert.Equal(t, 35.0, DeciToUnit(350))
	assert.Equal(t, 29.8, DeciToUnit(298))
}

func TestTimeRemaining(t *testing.T) {
	tests := []struct {
		name         string
		state        ChargeState
		current      float64
		chargeNow    *int64
		capacityFull int64
		want         string
	}{
		{
			name:      "discharging negative current",
			state:     Discharging,
			current:   -0.5,
			chargeNow: ptr.To(int64(1250000)),
			want:      "2h 30m",
		},
		{
			name:      "discharging positive current",
			state:     Discharging,
			current:   2,
			chargeNow: ptr.To(int64(3000000)),
			want:      "1h 30m",
		},
		{
			name:      "minutes truncated",
			state:     Discharging,
			current:   -1.6,
			chargeNow: ptr.To(int64(1000000)),
			want:      "0h 37m",
		},
		{
			name:         "charging",
			state:        Charging,
			current:      1.5,
			chargeNow:    ptr.To(int64(1500000)),
			capacityFull: 4500000,
			want:         "2h 0m",
		},
		{
			name:         "charging without full capacity",
			state:        Charging,
			current:      1.5,
			chargeNow:    ptr.To(int64(1500000)),
			capacityFull: 0,
			want:         "Unknown",
		},
		{
			name:         "charging above full",
			state:        Charging,
			current:      1.5,
			chargeNow:    ptr.To(int64(5000000)),
			capacityFull: 4500000,
			want:         "Unknown",
		},
		{
			name:      "zero current",
			state:     Discharging,
			current:   0,
			chargeNow: ptr.To(int64(1000000)),
			want:      "Unknown",
		},
		{
			name:    "charge now missing",
			state:   Discharging,
			current: -1,
			want:    "Unknown",
		},
		{
			name:         "not charging",
			state:        NotCharging,
			current:      0.3,
			chargeNow:    ptr.To(int64(1000000)),
			capacityFull: 4500000,
			want:         "Unknown",
		},
		{
			name:         "full",
			state:        Full,
			current:      0.1,
			chargeNow:    ptr.To(int64(4500000)),
			capacityFull: 4500000,
			want:         "Unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeRemaining(tt.state, tt.current, tt.chargeNow, tt.capacityFull))
		})
	}
}

func TestParseChargeState(t *testing.T) {
	assert.Equal(t, Charging, ParseChargeState("Charging"))
	assert.Equal(t, Discharging, ParseChargeState("Discharging"))
	assert.Equal(t, NotCharging, ParseChargeState("Not charging"))
	assert.Equal(t, Full, ParseChargeState("Full"))
	assert.Equal(t, Unknown, ParseChargeState("Unknown"))
	assert.Equal(t, Unknown, ParseChargeState("charging"))
	assert.Equal(t, Unknown, ParseChargeState(""))
}
