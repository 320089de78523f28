package power

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSysfsRoot is where Linux exposes power supplies.
const DefaultSysfsRoot = "/sys/class/power_supply"

// acPrefixes are name prefixes of power_supply entries that describe a
// mains adapter.
var acPrefixes = []string{"ADP", "AC", "ACAD"}

var _ Reader = &SysfsReader{}

// SysfsReader reads battery and adapter state from a power_supply
// directory tree.
type SysfsReader struct {
	Root string
	// Now is used to timestamp readings. Defaults to time.Now.
	Now func() time.Time

	lastBatteryPath string
}

// NewSysfsReader returns a SysfsReader rooted at root, or at
// DefaultSysfsRoot if root is empty.
func NewSysfsReader(root string) *SysfsReader {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsReader{Root: root, Now: time.Now}
}

// Read implements Reader. The poller calls it from a single goroutine.
func (r *SysfsReader) Read(_ context.Context) Status {
	return Evaluate(r.ReadRaw(), r.now())
}

// ReadRaw collects the raw readings without converting them.
func (r *SysfsReader) ReadRaw() Raw {
	raw := Raw{Source: SourceSysfs}
	raw.ACConnected = r.acConnected()

	batteryPath := r.findBattery()
	if batteryPath == "" {
		logrus.WithField("root", r.Root).Warn("no battery found in power supply")
		return raw
	}
	raw.BatteryFound = true

	present, ok := r.readString(batteryPath, "present")
	raw.Present = boolPtr(ok && present == "1")
	if !*raw.Present {
		logrus.WithField("path", batteryPath).Warn("battery not present")
		return raw
	}

	raw.Capacity = r.readInt(batteryPath, "capacity")
	raw.Status = r.readOptionalString(batteryPath, "status")
	raw.VoltageMicroVolts = r.readInt(batteryPath, "voltage_now")
	raw.CurrentMicroAmps = r.readInt(batteryPath, "current_now")
	raw.TemperatureDeciCelsius = r.readInt(batteryPath, "temp")
	raw.ChargeFull = r.readInt(batteryPath, "charge_full")
	raw.ChargeFullDesign = r.readInt(batteryPath, "charge_full_design")
	raw.ChargeNow = r.readInt(batteryPath, "charge_now")
	raw.CycleCount = r.readInt(batteryPath, "cycle_count")
	raw.Technology = r.readOptionalString(batteryPath, "technology")
	raw.Manufacturer = r.readOptionalString(batteryPath, "manufacturer")
	raw.Model = r.readOptionalString(batteryPath, "model_name")

	return raw
}

func (r *SysfsReader) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *SysfsReader) entries() []string {
	des, err := os.ReadDir(r.Root)
	if err != nil {
		logrus.WithField("root", r.Root).Errorf("power supply path not readable: %v", err)
		return nil
	}
	names := make([]string, 0, len(des))
	for _, de := range des {
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names
}

// findBattery returns the first entry whose type is "Battery".
func (r *SysfsReader) findBattery() string {
	for _, name := range r.entries() {
		p := filepath.Join(r.Root, name)
		t, ok := r.readString(p, "type")
		if !ok || t != "Battery" {
			continue
		}
		if p != r.lastBatteryPath {
			logrus.Infof("found battery at: %s", p)
			r.lastBatteryPath = p
		}
		return p
	}
	return ""
}

// acConnected reports the online flag of the first adapter-like entry that
// has one.
func (r *SysfsReader) acConnected() bool {
	for _, name := range r.entries() {
		if !hasACPrefix(name) {
			continue
		}
		online, ok := r.readString(filepath.Join(r.Root, name), "online")
		if !ok {
			continue
		}
		return online == "1"
	}
	return false
}

func hasACPrefix(name string) bool {
	for _, p := range acPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (r *SysfsReader) readString(dir, file string) (string, bool) {
	b, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Debugf("could not read %s: %v", file, err)
		}
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

func (r *SysfsReader) readOptionalString(dir, file string) *string {
	s, ok := r.readString(dir, file)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func (r *SysfsReader) readInt(dir, file string) *int64 {
	s, ok := r.readString(dir, file)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		logrus.Debugf("could not parse %s=%q: %v", file, s, err)
		return nil
	}
	return &v
}

func boolPtr(b bool) *bool {
	return &b
}
