package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battmon/battmon/pkg/config"
	daemonutils "github.com/battmon/battmon/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install battmon as a systemd service",
		GroupID: gInstallation,
		Long: `Install battmon daemon as a systemd service (system-wide).

This makes battmon run in the background and automatically start on boot. You must run this command as root.

SMTP credentials can be placed in /etc/battmon.env, which the service reads on start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Validate the config before the service uses it.
			_, err := config.NewFile(configPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				err = config.NewFileFromConfig(config.DefaultRawFileConfig(), configPath).Save()
				if err != nil {
					return pkgerrors.Wrapf(err, "failed to save config")
				}
				logrus.Infof("default config written to %s", configPath)
			}

			err = daemonutils.Install(configPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run `battmon install' again.\n", exePath)

			return nil
		},
	}

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall battmon systemd service",
		GroupID: gInstallation,
		Long: `Stop battmon and remove its systemd service.

The config file is kept. You must run this command as root.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			logrus.Infof("uninstallation succeeded")
			return nil
		},
	}

	return cmd
}
