package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/effluent-watch/internal/api/client"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func alertsCmd() *cobra.Command {
	alertsRoot := &cobra.Command{
		Use:   "alerts",
		Short: "View and manage alerts",
		Long: "View the live alert feed, trim it to a display capacity, or read the\n" +
			"persisted alert history.",
	}

	alertsRoot.AddCommand(
		alertsListCmd(),
		alertsTrimCmd(),
		alertsHistoryCmd(),
	)

	return alertsRoot
}

func alertsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the live alert feed, newest first",
		Example: `  ewctl alerts list
  ewctl alerts list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alerts, err := newClient().Alerts(cmd.Context())
			if err != nil {
				return err
			}
			return renderAlerts(cmd, alerts, "No alerts.")
		},
	}
}

func alertsTrimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trim <slots>",
		Short: "Keep at most <slots> alerts in the feed",
		Args:  cobra.ExactArgs(1),
		Example: `  ewctl alerts trim 10
  ewctl alerts trim 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var slots int
			if _, err := fmt.Sscanf(args[0], "%d", &slots); err != nil || slots < 0 {
				return fmt.Errorf("slots must be a non-negative integer, got %q", args[0])
			}
			alerts, err := newClient().TrimAlerts(cmd.Context(), slots)
			if err != nil {
				return err
			}
			return renderAlerts(cmd, alerts, "Feed is empty.")
		},
	}
}

func alertsHistoryCmd() *cobra.Command {
	var (
		category string
		since    time.Duration
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show persisted alert history",
		Example: `  ewctl alerts history
  ewctl alerts history --category effluent --since 24h --limit 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := apiclient.HistoryFilter{Limit: limit}
			if category != "" {
				c := domain.Category(category)
				if !c.Valid() {
					return fmt.Errorf("unknown category %q (process, effluent, prediction)", category)
				}
				f.Category = c
			}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			alerts, err := newClient().AlertHistory(cmd.Context(), f)
			if err != nil {
				return err
			}
			return renderAlerts(cmd, alerts, "No alerts recorded.")
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category (process, effluent, prediction)")
	cmd.Flags().DurationVar(&since, "since", 0, "only alerts newer than this duration")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of alerts")
	return cmd
}

func renderAlerts(cmd *cobra.Command, alerts []domain.AlertRecord, empty string) error {
	out := cmd.OutOrStdout()
	if jsonOutput() {
		return outputJSON(out, alerts)
	}
	if len(alerts) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	return printAlertsTable(out, alerts)
}
