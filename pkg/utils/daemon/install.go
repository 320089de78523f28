package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	unitName = "battmon.service"

	unitTemplate = `[Unit]
Description=battmon battery monitor
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=/path/to/battmon daemon --config /path/to/config
ExecReload=/bin/kill -HUP $MAINPID
EnvironmentFile=-/etc/battmon.env
Restart=on-failure
RestartSec=10

[Install]
WantedBy=multi-user.target
`
)

var (
	unitPath = "/etc/systemd/system/" + unitName

	// runCommand is replaced in tests.
	runCommand = func(name string, args ...string) error {
		out, err := exec.Command(name, args...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return nil
	}
)

// RenderUnit returns the systemd unit running exePath with configPath.
func RenderUnit(exePath, configPath string) string {
	tmpl := strings.ReplaceAll(unitTemplate, "/path/to/battmon", exePath)
	return strings.ReplaceAll(tmpl, "/path/to/config", configPath)
}

// Install writes the systemd unit for the current executable, then enables
// and starts it.
func Install(configPath string) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}
	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the config file: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	logrus.Infof("writing systemd unit to %s", unitPath)

	err = os.MkdirAll(filepath.Dir(unitPath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(unitPath), err)
	}

	err = os.WriteFile(unitPath, []byte(RenderUnit(exePath, configPath)), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	logrus.Infof("starting battmon")

	err = runCommand("systemctl", "daemon-reload")
	if err != nil {
		return err
	}

	return runCommand("systemctl", "enable", "--now", unitName)
}
