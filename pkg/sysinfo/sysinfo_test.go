package sysinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	c := &Collector{
		hostname: func() (string, error) { return "pve-01", nil },
		uptime:   func(context.Context) (uint64, error) { return 93784, nil },
		loadAvg: func(context.Context) (*load.AvgStat, error) {
			return &load.AvgStat{Load1: 0.5, Load5: 0.25, Load15: 1}, nil
		},
		cpuInfo: func(context.Context) ([]cpu.InfoStat, error) {
			return []cpu.InfoStat{{Mhz: 2400.4}}, nil
		},
	}

	got := c.Collect(context.Background())

	assert.Equal(t, Info{
		Hostname:     "pve-01",
		Uptime:       "26h 3m",
		LoadAverage:  "0.50 0.25 1.00",
		CPUFrequency: "2400 MHz",
	}, got)
}

func TestCollect_Failures(t *testing.T) {
	boom := errors.New("boom")
	c := &Collector{
		hostname: func() (string, error) { return "", boom },
		uptime:   func(context.Context) (uint64, error) { return 0, boom },
		loadAvg:  func(context.Context) (*load.AvgStat, error) { return nil, boom },
		cpuInfo:  func(context.Context) ([]cpu.InfoStat, error) { return nil, nil },
	}

	got := c.Collect(context.Background())

	assert.Equal(t, Info{
		Hostname:     "Unknown",
		Uptime:       "Unknown",
		LoadAverage:  "Unknown",
		CPUFrequency: "Unknown",
	}, got)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0h 0m", FormatUptime(59*time.Second))
	assert.Equal(t, "1h 1m", FormatUptime(time.Hour+time.Minute+30*time.Second))
	assert.Equal(t, "49h 0m", FormatUptime(49*time.Hour))
}
