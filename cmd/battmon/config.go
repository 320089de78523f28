package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battmon/battmon/pkg/config"
)

const maskedSecret = "********"

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: gAdvanced,
		Short:   "Manage the daemon config file",
	}

	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Long: `Write a config file with every key set to its default value.

SMTP credentials are better kept out of this file: set BATTMON_SMTP_USERNAME and
BATTMON_SMTP_PASSWORD in the environment or in the env file instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			}

			f := config.NewFileFromConfig(config.DefaultRawFileConfig(), configPath)
			err := f.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.Infof("default config written to %s", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		Long:  `Print the config the daemon would run with: file values, environment overrides and defaults combined. The SMTP password is masked.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			raw, err := config.NewRawFileConfigFromConfig(f)
			if err != nil {
				return err
			}
			maskSecrets(raw)

			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
}

func maskSecrets(raw *config.RawFileConfig) {
	if raw.SMTP != nil && raw.SMTP.Password != nil && *raw.SMTP.Password != "" {
		masked := maskedSecret
		raw.SMTP.Password = &masked
	}
}
