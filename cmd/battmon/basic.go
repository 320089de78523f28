package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/battmon/battmon/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("client: %s %s\n", version.Version, version.GitCommit)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			if v, err := newAPIClient().GetVersion(ctx); err == nil {
				cmd.Printf("daemon: %s\n", v)
			}
		},
	}
}

func NewSendMailCommand() *cobra.Command {
	var subject, message string

	cmd := &cobra.Command{
		Use:     "send-mail",
		GroupID: gBasic,
		Short:   "Send a test mail through the daemon",
		Long: `Ask the daemon to send a message to the configured alert recipients.

This bypasses alert conditions and cooldowns. The attempt shows up in the alert history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := newAPIClient().SendMail(cmd.Context(), subject, message)
			if err != nil {
				return err
			}

			cmd.Printf("Subject: %s\n", res.Subject)
			cmd.Printf("Message: %s\n", res.Message)
			cmd.Println("Sent: " + bool2Text(res.Sent))
			if !res.Sent {
				cmd.Println("Check the daemon log and the SMTP settings ('battmon config show').")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&subject, "subject", "s", "", "mail subject (daemon default: Test Subject)")
	f.StringVarP(&message, "message", "m", "", "mail body (daemon default: Test Message)")

	return cmd
}

func NewSystemInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "system-info",
		GroupID: gBasic,
		Short:   "Show host information reported by the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := newAPIClient().GetSystemInfo(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("Hostname: %s\n", bold("%s", info.Hostname))
			cmd.Printf("Uptime: %s\n", info.Uptime)
			cmd.Printf("Load average: %s\n", info.LoadAverage)
			cmd.Printf("CPU frequency: %s\n", info.CPUFrequency)
			return nil
		},
	}
}
