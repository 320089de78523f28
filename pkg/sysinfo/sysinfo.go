// Package sysinfo reports host facts included in alert emails and the
// system-info API.
package sysinfo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/sirupsen/logrus"
)

const unknown = "Unknown"

// Info is a point-in-time view of the host.
type Info struct {
	Hostname     string `json:"hostname"`
	Uptime       string `json:"uptime"`
	LoadAverage  string `json:"loadAverage"`
	CPUFrequency string `json:"cpuFrequency"`
}

// Collector gathers Info. The function fields exist so tests can replace
// the gopsutil calls.
type Collector struct {
	hostname func() (string, error)
	uptime   func(context.Context) (uint64, error)
	loadAvg  func(context.Context) (*load.AvgStat, error)
	cpuInfo  func(context.Context) ([]cpu.InfoStat, error)
}

// NewCollector returns a Collector backed by gopsutil.
func NewCollector() *Collector {
	return &Collector{
		hostname: os.Hostname,
		uptime:   host.UptimeWithContext,
		loadAvg:  load.AvgWithContext,
		cpuInfo:  cpu.InfoWithContext,
	}
}

// Collect never fails; unavailable values are reported as "Unknown".
func (c *Collector) Collect(ctx context.Context) Info {
	return Info{
		Hostname:     c.Hostname(),
		Uptime:       c.Uptime(ctx),
		LoadAverage:  c.LoadAverage(ctx),
		CPUFrequency: c.CPUFrequency(ctx),
	}
}

// Hostname returns the host name or "Unknown".
func (c *Collector) Hostname() string {
	h, err := c.hostname()
	if err != nil || h == "" {
		logrus.Debugf("failed to get hostname: %v", err)
		return unknown
	}
	return h
}

// Uptime returns the uptime as "{H}h {M}m".
func (c *Collector) Uptime(ctx context.Context) string {
	secs, err := c.uptime(ctx)
	if err != nil {
		logrus.Debugf("failed to get uptime: %v", err)
		return unknown
	}
	return FormatUptime(time.Duration(secs) * time.Second)
}

// LoadAverage returns the 1, 5 and 15 minute load averages separated by spaces.
func (c *Collector) LoadAverage(ctx context.Context) string {
	avg, err := c.loadAvg(ctx)
	if err != nil || avg == nil {
		logrus.Debugf("failed to get load average: %v", err)
		return unknown
	}
	return fmt.Sprintf("%.2f %.2f %.2f", avg.Load1, avg.Load5, avg.Load15)
}

// CPUFrequency returns the frequency of the first CPU, e.g. "2400 MHz".
func (c *Collector) CPUFrequency(ctx context.Context) string {
	infos, err := c.cpuInfo(ctx)
	if err != nil || len(infos) == 0 || infos[0].Mhz <= 0 {
		logrus.Debugf("failed to get cpu frequency: %v", err)
		return unknown
	}
	return fmt.Sprintf("%.0f MHz", infos[0].Mhz)
}

// FormatUptime renders d as whole hours and minutes.
func FormatUptime(d time.Duration) string {
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}
