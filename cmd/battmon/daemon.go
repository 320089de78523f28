package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battmon/battmon/pkg/daemon"
	"github.com/battmon/battmon/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	logFile := "logs/battmon.log"

	cmd := &cobra.Command{
		Use:     "daemon",
		Short:   "Run battmon daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			closeLog, err := setupFileLogger(logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("battmon daemon starting")
			return daemon.Run(configPath)
		},
	}

	f := cmd.Flags()

	f.StringVar(&logFile, "log-file", logFile, "rotating log file, empty to log to stderr only")

	return cmd
}
