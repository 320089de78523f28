package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/notify"
)

type Config interface {
	CheckInterval() time.Duration
	LowBatteryThreshold() int
	CriticalBatteryThreshold() int
	BatteryHealthThreshold() int
	AlertCooldown() time.Duration
	// AlertEmails returns a copy of the recipient list.
	AlertEmails() []string
	ListenAddr() string
	PowerSupplyPath() string
	// ReportSchedule is a cron expression. Empty disables reports.
	ReportSchedule() string
	SMTP() notify.SMTPConfig

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	LogrusFields() logrus.Fields
}
