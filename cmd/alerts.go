package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/tariff-impact/internal/alerts"
)

var alertsSend bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Tariff risk alerts",
}

var alertsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the profile against its alert thresholds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Profile.Snapshot()
		if err != nil {
			return err
		}

		alerter := alerts.NewAlerter(cfg.Alerts)
		found := alerter.Evaluate(snap)
		formatAlerts(cmd.OutOrStdout(), found)

		if alertsSend && len(found) > 0 {
			url := alerter.WebhookURL(snap)
			if url == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no webhook configured, nothing sent")
				return nil
			}
			sent := alerter.SendAlerts(ctx, url, found)
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d of %d alerts\n", sent, len(found))
		}
		return nil
	},
}

func formatAlerts(w io.Writer, found []alerts.Alert) {
	if len(found) == 0 {
		fmt.Fprintln(w, "no alerts")
		return
	}
	for _, a := range found {
		fmt.Fprintf(w, "[%s] %s: %s\n", a.Severity, a.Type, a.Message)
	}
}

func init() {
	alertsCheckCmd.Flags().BoolVar(&alertsSend, "send", false, "deliver alerts to the webhook")
	alertsCmd.AddCommand(alertsCheckCmd)
	rootCmd.AddCommand(alertsCmd)
}
