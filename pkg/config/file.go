package config

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/notify"
	"github.com/battmon/battmon/pkg/power"
	"github.com/battmon/battmon/pkg/utils/ptr"
)

const (
	EnvSMTPHost     = "BATTMON_SMTP_HOST"
	EnvSMTPPort     = "BATTMON_SMTP_PORT"
	EnvSMTPUsername = "BATTMON_SMTP_USERNAME"
	EnvSMTPPassword = "BATTMON_SMTP_PASSWORD"
	EnvSMTPFrom     = "BATTMON_SMTP_FROM"
	EnvAlertEmails  = "BATTMON_ALERT_EMAILS"
)

// DefaultPath is where the daemon looks for its config file.
const DefaultPath = "/etc/battmon.json"

var (
	defaultFileConfig = &RawFileConfig{
		CheckIntervalSeconds:     ptr.To(60),
		LowBatteryThreshold:      ptr.To(30),
		CriticalBatteryThreshold: ptr.To(15),
		BatteryHealthThreshold:   ptr.To(95),
		AlertCooldownMinutes:     ptr.To(15),
		AlertEmails:              []string{},
		ListenAddr:               ptr.To(":8081"),
		PowerSupplyPath:          ptr.To(power.DefaultSysfsRoot),
		ReportSchedule:           ptr.To(""),
		SMTP: &RawSMTPConfig{
			Host:           ptr.To("smtp.gmail.com"),
			Port:           ptr.To(587),
			Username:       ptr.To(""),
			Password:       ptr.To(""),
			From:           ptr.To(""),
			UseTLS:         ptr.To(true),
			TimeoutSeconds: ptr.To(int(notify.DefaultTimeout / time.Second)),
		},
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	env      *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// NewFileFromConfig wraps c without reading the file. A nil c means all
// defaults. Environment overrides are not applied.
func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		env:      &RawFileConfig{SMTP: &RawSMTPConfig{}},
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	CheckIntervalSeconds     *int           `json:"checkIntervalSeconds,omitempty"`
	LowBatteryThreshold      *int           `json:"lowBatteryThreshold,omitempty"`
	CriticalBatteryThreshold *int           `json:"criticalBatteryThreshold,omitempty"`
	BatteryHealthThreshold   *int           `json:"batteryHealthThreshold,omitempty"`
	AlertCooldownMinutes     *int           `json:"alertCooldownMinutes,omitempty"`
	AlertEmails              []string       `json:"alertEmails,omitempty"`
	ListenAddr               *string        `json:"listenAddr,omitempty"`
	PowerSupplyPath          *string        `json:"powerSupplyPath,omitempty"`
	ReportSchedule           *string        `json:"reportSchedule,omitempty"`
	SMTP                     *RawSMTPConfig `json:"smtp,omitempty"`
}

type RawSMTPConfig struct {
	Host           *string `json:"host,omitempty"`
	Port           *int    `json:"port,omitempty"`
	Username       *string `json:"username,omitempty"`
	Password       *string `json:"password,omitempty"`
	From           *string `json:"from,omitempty"`
	UseTLS         *bool   `json:"useTLS,omitempty"`
	TimeoutSeconds *int    `json:"timeoutSeconds,omitempty"`
}

// DefaultRawFileConfig returns a fully populated copy of the defaults.
func DefaultRawFileConfig() *RawFileConfig {
	c := NewFileFromConfig(nil, "")
	raw, _ := NewRawFileConfigFromConfig(c)
	return raw
}

// NewRawFileConfigFromConfig returns the effective values of c with every
// field set.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	smtp := c.SMTP()
	rawConfig := &RawFileConfig{
		CheckIntervalSeconds:     ptr.To(int(c.CheckInterval() / time.Second)),
		LowBatteryThreshold:      ptr.To(c.LowBatteryThreshold()),
		CriticalBatteryThreshold: ptr.To(c.CriticalBatteryThreshold()),
		BatteryHealthThreshold:   ptr.To(c.BatteryHealthThreshold()),
		AlertCooldownMinutes:     ptr.To(int(c.AlertCooldown() / time.Minute)),
		AlertEmails:              c.AlertEmails(),
		ListenAddr:               ptr.To(c.ListenAddr()),
		PowerSupplyPath:          ptr.To(c.PowerSupplyPath()),
		ReportSchedule:           ptr.To(c.ReportSchedule()),
		SMTP: &RawSMTPConfig{
			Host:           ptr.To(smtp.Host),
			Port:           ptr.To(smtp.Port),
			Username:       ptr.To(smtp.Username),
			Password:       ptr.To(smtp.Password),
			From:           ptr.To(smtp.From),
			UseTLS:         ptr.To(smtp.UseTLS),
			TimeoutSeconds: ptr.To(int(smtp.Timeout / time.Second)),
		},
	}

	return rawConfig, nil
}

func (f *File) CheckInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(ptr.Deref(f.c.CheckIntervalSeconds, *defaultFileConfig.CheckIntervalSeconds)) * time.Second
}

func (f *File) LowBatteryThreshold() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.LowBatteryThreshold, *defaultFileConfig.LowBatteryThreshold)
}

func (f *File) CriticalBatteryThreshold() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.CriticalBatteryThreshold, *defaultFileConfig.CriticalBatteryThreshold)
}

func (f *File) BatteryHealthThreshold() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.BatteryHealthThreshold, *defaultFileConfig.BatteryHealthThreshold)
}

func (f *File) AlertCooldown() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(ptr.Deref(f.c.AlertCooldownMinutes, *defaultFileConfig.AlertCooldownMinutes)) * time.Minute
}

func (f *File) AlertEmails() []string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	emails := f.c.AlertEmails
	if f.env != nil && f.env.AlertEmails != nil {
		emails = f.env.AlertEmails
	}

	out := make([]string, len(emails))
	copy(out, emails)
	return out
}

func (f *File) ListenAddr() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ListenAddr, *defaultFileConfig.ListenAddr)
}

func (f *File) PowerSupplyPath() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.PowerSupplyPath, *defaultFileConfig.PowerSupplyPath)
}

func (f *File) ReportSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ReportSchedule, *defaultFileConfig.ReportSchedule)
}

// SMTP returns the mail settings. Environment values take precedence over
// the file, which takes precedence over the defaults.
func (f *File) SMTP() notify.SMTPConfig {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	file := f.c.SMTP
	if file == nil {
		file = &RawSMTPConfig{}
	}
	env := &RawSMTPConfig{}
	if f.env != nil && f.env.SMTP != nil {
		env = f.env.SMTP
	}
	def := defaultFileConfig.SMTP

	pick := func(e, v *string, d *string) string {
		if e != nil {
			return *e
		}
		return ptr.Deref(v, *d)
	}

	port := ptr.Deref(file.Port, *def.Port)
	if env.Port != nil {
		port = *env.Port
	}

	return notify.SMTPConfig{
		Host:     pick(env.Host, file.Host, def.Host),
		Port:     port,
		Username: pick(env.Username, file.Username, def.Username),
		Password: pick(env.Password, file.Password, def.Password),
		From:     pick(env.From, file.From, def.From),
		UseTLS:   ptr.Deref(file.UseTLS, *def.UseTLS),
		Timeout:  time.Duration(ptr.Deref(file.TimeoutSeconds, *def.TimeoutSeconds)) * time.Second,
	}
}

// Validate reports the first out-of-range value.
func (f *File) Validate() error {
	if v := f.CheckInterval(); v <= 0 {
		return pkgerrors.Errorf("checkIntervalSeconds must be positive, got %s", v)
	}
	if v := f.AlertCooldown(); v < 0 {
		return pkgerrors.Errorf("alertCooldownMinutes must not be negative, got %s", v)
	}
	for name, v := range map[string]int{
		"lowBatteryThreshold":      f.LowBatteryThreshold(),
		"criticalBatteryThreshold": f.CriticalBatteryThreshold(),
		"batteryHealthThreshold":   f.BatteryHealthThreshold(),
	} {
		if v < 0 || v > 100 {
			return pkgerrors.Errorf("%s must be between 0 and 100, got %d", name, v)
		}
	}
	if p := f.SMTP().Port; p <= 0 || p > 65535 {
		return pkgerrors.Errorf("smtp.port must be between 1 and 65535, got %d", p)
	}
	return nil
}

// Load reads the file and the environment. The current values are kept if
// the new ones fail to parse or validate.
func (f *File) Load() error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	c, err := readRawFileConfig(f.filepath)
	if err != nil {
		return err
	}

	candidate := &File{c: c, env: env, mu: &sync.RWMutex{}, filepath: f.filepath}
	err = candidate.Validate()
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid config in %s", f.filepath)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c = c
	f.env = env

	return nil
}

func readRawFileConfig(path string) (*RawFileConfig, error) {
	fp, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			return &RawFileConfig{}, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read file %s", path)
	}

	if strings.TrimSpace(string(b)) == "" {
		return &RawFileConfig{}, nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", path)
	}

	return &conf, nil
}

// Save writes the file-backed values only. Environment overrides are never
// written.
func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	smtp := f.SMTP()
	return logrus.Fields{
		"checkInterval":            f.CheckInterval(),
		"lowBatteryThreshold":      f.LowBatteryThreshold(),
		"criticalBatteryThreshold": f.CriticalBatteryThreshold(),
		"batteryHealthThreshold":   f.BatteryHealthThreshold(),
		"alertCooldown":            f.AlertCooldown(),
		"alertEmails":              f.AlertEmails(),
		"listenAddr":               f.ListenAddr(),
		"powerSupplyPath":          f.PowerSupplyPath(),
		"reportSchedule":           f.ReportSchedule(),
		"smtpHost":                 smtp.Host,
		"smtpPort":                 smtp.Port,
		"smtpUsername":             smtp.Username,
	}
}

// AlertSettings returns the alert settings in effect for c.
func AlertSettings(c Config) alert.Settings {
	return alert.Settings{
		LowThreshold:      c.LowBatteryThreshold(),
		CriticalThreshold: c.CriticalBatteryThreshold(),
		HealthThreshold:   c.BatteryHealthThreshold(),
		Cooldown:          c.AlertCooldown(),
		Recipients:        c.AlertEmails(),
	}
}

func loadEnv() (*RawFileConfig, error) {
	env := &RawFileConfig{SMTP: &RawSMTPConfig{}}

	str := func(key string) *string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		return &v
	}

	env.SMTP.Host = str(EnvSMTPHost)
	env.SMTP.Username = str(EnvSMTPUsername)
	env.SMTP.Password = str(EnvSMTPPassword)
	env.SMTP.From = str(EnvSMTPFrom)

	if v := str(EnvSMTPPort); v != nil {
		port, err := strconv.Atoi(*v)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "invalid %s %q", EnvSMTPPort, *v)
		}
		env.SMTP.Port = &port
	}

	if v := str(EnvAlertEmails); v != nil {
		env.AlertEmails = splitList(*v)
	}

	return env, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
