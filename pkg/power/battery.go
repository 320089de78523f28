package power

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/utils/ptr"
)

var _ Reader = &BatteryReader{}

// BatteryReader reads the first battery reported by the platform battery
// API. It is used on hosts without a power_supply tree.
type BatteryReader struct {
	// GetAll lists batteries. Defaults to battery.GetAll.
	GetAll func() ([]*battery.Battery, error)
	Now    func() time.Time
}

// NewBatteryReader returns a BatteryReader backed by github.com/distatus/battery.
func NewBatteryReader() *BatteryReader {
	return &BatteryReader{GetAll: battery.GetAll, Now: time.Now}
}

// Read implements Reader.
func (r *BatteryReader) Read(_ context.Context) Status {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return Evaluate(r.ReadRaw(), now())
}

// ReadRaw converts the platform battery values into Raw. Energy values
// (mWh, mW) are turned into charge and current with the battery voltage so
// Evaluate can treat both readers alike.
func (r *BatteryReader) ReadRaw() Raw {
	raw := Raw{Source: SourceBattery}

	getAll := battery.GetAll
	if r.GetAll != nil {
		getAll = r.GetAll
	}

	batteries, err := getAll()
	bat := firstUsable(batteries)
	if bat == nil {
		if err != nil {
			logrus.Warnf("failed to get battery info: %v", err)
		} else {
			logrus.Warn("no battery found")
		}
		return raw
	}
	if err != nil {
		logrus.Debugf("partial battery info: %v", err)
	}

	raw.BatteryFound = true
	raw.Present = ptr.To(true)

	state := Unknown
	switch bat.State {
	case battery.Charging:
		state = Charging
		raw.ACConnected = true
	case battery.Discharging:
		state = Discharging
	case battery.Full:
		state = Full
		raw.ACConnected = true
	}
	raw.Status = ptr.To(string(state))

	if bat.Full > 0 {
		raw.Capacity = ptr.To(int64(math.Round(bat.Current / bat.Full * 100)))
	}

	volts := bat.Voltage
	if volts <= 0 {
		volts = bat.DesignVoltage
	}
	if volts <= 0 {
		// Without a voltage the energy figures cannot become charge figures.
		raw.ChargeFull = ptr.To(int64(bat.Full))
		raw.ChargeFullDesign = ptr.To(int64(bat.Design))
		return raw
	}

	// mWh / V = mAh; x1000 = µAh. Same for mW -> µA.
	toMicro := func(milli float64) int64 { return int64(math.Round(milli / volts * 1000)) }

	rate := bat.ChargeRate
	if state == Discharging {
		rate = -rate
	}

	raw.VoltageMicroVolts = ptr.To(int64(math.Round(volts * 1_000_000)))
	raw.CurrentMicroAmps = ptr.To(toMicro(rate))
	raw.ChargeFull = ptr.To(toMicro(bat.Full))
	raw.ChargeFullDesign = ptr.To(toMicro(bat.Design))
	raw.ChargeNow = ptr.To(toMicro(bat.Current))

	return raw
}

func firstUsable(batteries []*battery.Battery) *battery.Battery {
	for _, b := range batteries {
		if b != nil {
			return b
		}
	}
	return nil
}

// NewReader picks the sysfs reader when root exists and falls back to the
// platform battery API otherwise.
func NewReader(root string) Reader {
	if root == "" {
		root = DefaultSysfsRoot
	}
	if fi, err := os.Stat(root); err == nil && fi.IsDir() {
		logrus.WithField("root", root).Info("using sysfs power supply reader")
		return NewSysfsReader(root)
	}
	logrus.WithField("root", root).Warn("power supply path not found, using platform battery API")
	return NewBatteryReader()
}
