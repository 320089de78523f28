package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/battmon/battmon/pkg/power"
)

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current battery status",
		Long:    `Get the battery status last polled by the daemon.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newAPIClient().GetBatteryStatus(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}

			if s == nil {
				cmd.Println("The daemon has not polled the battery yet. Try again in a moment.")
				return nil
			}

			printStatus(cmd, s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, s *power.Status) {
	cmd.Println(bold("Power:"))
	cmd.Println("  AC connected: " + bool2Text(s.ACConnected))
	cmd.Println("  Battery present: " + bool2Text(s.BatteryPresent))
	cmd.Println()

	if !s.BatteryPresent {
		cmd.Printf("Last update: %s\n", s.Timestamp.Local().Format("2006-01-02 15:04:05"))
		return
	}

	cmd.Println(bold("Battery status:"))
	cmd.Printf("  Current charge: %s\n", chargeText(s.Percentage))
	cmd.Printf("  State: %s\n", bold("%s", stateText(s.ChargeState)))
	cmd.Printf("  Time remaining: %s\n", bold("%s", s.TimeRemaining))
	cmd.Printf("  Health: %s\n", bold("%d%%", s.HealthPercent))
	cmd.Printf("  Voltage: %s\n", bold("%.2f V", s.Voltage))
	cmd.Printf("  Current: %s\n", currentText(s.CurrentAmps))
	cmd.Printf("  Temperature: %s\n", bold("%.1f °C", s.TemperatureCelsius))
	cmd.Println()

	cmd.Println(bold("Battery info:"))
	cmd.Printf("  Cycle count: %d\n", s.CycleCount)
	cmd.Printf("  Capacity (full / design): %d / %d\n", s.CapacityFull, s.CapacityDesign)
	cmd.Printf("  Technology: %s\n", s.Technology)
	cmd.Printf("  Manufacturer: %s\n", s.Manufacturer)
	cmd.Printf("  Model: %s\n", s.Model)
	cmd.Println()

	cmd.Printf("Last update: %s (source: %s)\n", s.Timestamp.Local().Format("2006-01-02 15:04:05"), s.Source)
}

func chargeText(p int) string {
	switch {
	case p <= 15:
		return color.New(color.Bold, color.FgRed).Sprintf("%d%%", p)
	case p <= 30:
		return color.New(color.Bold, color.FgYellow).Sprintf("%d%%", p)
	default:
		return bold("%d%%", p)
	}
}

func stateText(state power.ChargeState) string {
	switch state {
	case power.Charging:
		return color.GreenString("charging")
	case power.Discharging:
		return color.RedString("discharging")
	case power.NotCharging:
		return color.YellowString("not charging")
	case power.Full:
		return "full"
	default:
		return "unknown"
	}
}

// currentText shows current with sign (+ charging, - discharging).
func currentText(amps float64) string {
	switch {
	case amps > 0:
		return color.New(color.Bold, color.FgGreen).Sprintf("%+.2f A", amps)
	case amps < 0:
		return color.New(color.Bold, color.FgRed).Sprintf("%+.2f A", amps)
	default:
		return bold("%+.2f A", amps)
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
