package main

import (
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewAlertsCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "alerts",
		GroupID: gBasic,
		Short:   "List recent alerts",
		Long:    `List the most recent alerts the daemon attempted to send, oldest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := newAPIClient().GetAlertHistory(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), records)
			}

			if len(records) == 0 {
				cmd.Println("No alerts yet.")
				return nil
			}

			for _, r := range records {
				sent := color.GreenString("sent")
				if !r.Sent {
					sent = color.RedString("failed")
				}
				cmd.Printf("%s  %-16s  %-6s  %s\n",
					r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.AlertType, sent, bold("%s", r.Subject))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the alerts as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "conditions",
		Short: "Show the alert rules in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conds, err := newAPIClient().GetAlertConditions(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(conds))
			for k := range conds {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				cmd.Printf("  %s: %s\n", bold("%s", k), conds[k])
			}
			return nil
		},
	})

	return cmd
}
