package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var onlyAbnormal bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest plant status",
		Long: "Show the most recent status report: every zone sensor, the measured\n" +
			"effluent values and the predicted effluent values, each with its\n" +
			"threshold and verdict.",
		Example: `  ewctl status
  ewctl status --abnormal
  ewctl status --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := newClient().Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), report)
			}
			return printStatusReport(cmd.OutOrStdout(), report, onlyAbnormal)
		},
	}

	cmd.Flags().BoolVar(&onlyAbnormal, "abnormal", false, "only show abnormal rows")
	return cmd
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Run one evaluation cycle now",
		Long: "Ask the server to fetch a fresh snapshot and evaluate it immediately,\n" +
			"outside the poll schedule. Prints the alerts the cycle raised.",
		Example: `  ewctl evaluate
  ewctl evaluate --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := newClient().Evaluate(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			if len(res.Raised) == 0 {
				fmt.Fprintln(out, "No new alerts.")
				return nil
			}
			return printAlertsTable(out, res.Raised)
		},
	}
}
