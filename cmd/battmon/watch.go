package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battmon/battmon/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		GroupID: gBasic,
		Short:   "Stream status updates and alerts",
		Long:    `Follow the daemon's event stream and print every status update and alert until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Fail fast when the daemon is unreachable.
			if _, err := newAPIClient().GetVersion(ctx); err != nil {
				return err
			}

			for ev := range newAPIClient().SubscribeEvents(ctx) {
				switch ev.Name {
				case events.StatusUpdated:
					payload, err := events.DecodeAs[events.StatusUpdatedEvent](ev)
					if err != nil {
						logrus.WithError(err).Error("failed to decode status.updated event")
						continue
					}
					s := payload.Status
					cmd.Printf("%s  status  %s  %s  AC %s  remaining %s\n",
						s.Timestamp.Local().Format("15:04:05"), chargeText(s.Percentage),
						stateText(s.ChargeState), bool2Text(s.ACConnected), s.TimeRemaining)
				case events.AlertFired:
					payload, err := events.DecodeAs[events.AlertFiredEvent](ev)
					if err != nil {
						logrus.WithError(err).Error("failed to decode alert.fired event")
						continue
					}
					r := payload.Record
					cmd.Printf("%s  alert   %s  %s  sent %s\n",
						r.Timestamp.Local().Format("15:04:05"), r.AlertType, bold("%s", r.Subject), bool2Text(r.Sent))
				default:
					logrus.WithField("event", ev.Name).Debug("ignoring unknown event")
				}
			}

			if ctx.Err() == nil {
				logrus.Warn("event stream closed by the daemon")
			}
			return nil
		},
	}
}
