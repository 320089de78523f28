package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/battmon/battmon/pkg/client"
	"github.com/battmon/battmon/pkg/config"
	"github.com/battmon/battmon/pkg/version"
)

var (
	logLevel   = "info"
	configPath = config.DefaultPath
	daemonAddr = client.DefaultBaseURL
	envFile    = ".env"
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
		gInstallation,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
		})
	}

	return nil
}

// loadEnvFile loads SMTP credentials and other overrides from path. A
// missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	if err == nil {
		logrus.WithField("file", path).Debug("env file loaded")
	}
	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: battmon daemon is not running")
		fmt.Fprintf(os.Stderr, "Is the daemon running at %s? Start it with 'battmon daemon' or 'battmon install'.\n", daemonAddr)
	} else if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "\nError: the daemon does not support this request")
		fmt.Fprintln(os.Stderr, "Make sure the client and the daemon are the same version.")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battmon",
		Short: "battmon monitors battery power and emails alerts",
		Long: `battmon polls the host battery, serves its state over HTTP, and emails
alerts when the charge drops below configured thresholds.

Run 'battmon daemon' on the host to monitor, then use the other commands to
query it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			err = loadEnvFile(envFile)
			if err != nil {
				return err
			}

			if cmd.GroupID != gBasic {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			if daemonVersion, err := newAPIClient().GetVersion(ctx); err == nil {
				if daemonVersion != version.Version {
					logrus.WithFields(logrus.Fields{
						"clientVersion": version.Version,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. battmon may not work as expected.")
				}
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&daemonAddr, "daemon-addr", daemonAddr, "battmon daemon address")
	globalFlags.StringVar(&envFile, "env-file", envFile, "file with environment overrides such as SMTP credentials")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewAlertsCommand(),
		NewSendMailCommand(),
		NewSystemInfoCommand(),
		NewWatchCommand(),
		NewConfigCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
