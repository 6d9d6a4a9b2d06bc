package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func thresholdsCmd() *cobra.Command {
	thRoot := &cobra.Command{
		Use:   "thresholds",
		Short: "View and edit thresholds",
		Long: "View and edit the upper and lower bounds every zone sensor and effluent\n" +
			"parameter is judged against. Changes take effect immediately: the server\n" +
			"re-evaluates the last snapshot as soon as a bound changes.",
	}

	thRoot.AddCommand(
		thresholdsShowCmd(),
		thresholdsSetProcessCmd(),
		thresholdsSetEffluentCmd(),
		thresholdsApplyCmd(),
	)

	return thRoot
}

func thresholdsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current thresholds",
		Example: `  ewctl thresholds show
  ewctl thresholds show --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			th, err := newClient().Thresholds(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), th)
			}
			return printThresholds(cmd.OutOrStdout(), th)
		},
	}
}

func thresholdsSetProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-process <stage> <sensor> <upper|lower> <value|none>",
		Short: "Set one bound of a zone sensor threshold",
		Args:  cobra.ExactArgs(4),
		Example: `  ewctl thresholds set-process aerobic do lower 2.5
  ewctl thresholds set-process anoxic orp upper none --operator kim`,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseBoundValue(args[3])
			if err != nil {
				return err
			}
			th, err := newClient().SetProcessBound(cmd.Context(),
				domain.Stage(args[0]), domain.Sensor(args[1]), domain.Bound(args[2]), value)
			if err != nil {
				return err
			}
			return renderThresholds(cmd, th)
		},
	}
}

func thresholdsSetEffluentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-effluent <parameter> <upper|lower> <value|none>",
		Short: "Set one bound of an effluent parameter threshold",
		Args:  cobra.ExactArgs(3),
		Example: `  ewctl thresholds set-effluent toc upper 25
  ewctl thresholds set-effluent T-N upper 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			param, ok := domain.ParseParameter(args[0])
			if !ok {
				return fmt.Errorf("unknown parameter %q (toc, ss, tn, tp)", args[0])
			}
			value, err := parseBoundValue(args[2])
			if err != nil {
				return err
			}
			th, err := newClient().SetEffluentBound(cmd.Context(), param, domain.Bound(args[1]), value)
			if err != nil {
				return err
			}
			return renderThresholds(cmd, th)
		},
	}
}

func thresholdsApplyCmd() *cobra.Command {
	var (
		file     string
		category string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a threshold category from a YAML file",
		Long: "Replace the process stages or effluent parameters listed in the file.\n" +
			"Stages and parameters the file leaves out keep their current values. The\n" +
			"file uses the same layout as the server's thresholds file; only the section\n" +
			"named by --category is sent.",
		Example: `  ewctl thresholds apply -f thresholds.yaml --category effluent`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := domain.Category(category)
			if c != domain.CategoryProcess && c != domain.CategoryEffluent {
				return fmt.Errorf("--category must be process or effluent, got %q", category)
			}
			th, err := readThresholdsFile(file)
			if err != nil {
				return err
			}
			updated, err := newClient().ReplaceThresholds(cmd.Context(), c, th)
			if err != nil {
				return err
			}
			return renderThresholds(cmd, updated)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with thresholds")
	cmd.Flags().StringVar(&category, "category", "", "category to replace (process, effluent)")
	cobra.CheckErr(cmd.MarkFlagRequired("file"))
	cobra.CheckErr(cmd.MarkFlagRequired("category"))
	return cmd
}

// parseBoundValue accepts a number, or "none" to clear the bound.
func parseBoundValue(s string) (*float64, error) {
	if strings.EqualFold(s, "none") || s == "-" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("bound value must be a number or \"none\", got %q", s)
	}
	return &v, nil
}

func readThresholdsFile(path string) (*domain.Thresholds, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading thresholds file: %w", err)
	}
	var th domain.Thresholds
	if err := yaml.Unmarshal(data, &th); err != nil {
		return nil, fmt.Errorf("parsing thresholds file: %w", err)
	}
	return &th, nil
}

func renderThresholds(cmd *cobra.Command, th *domain.Thresholds) error {
	if jsonOutput() {
		return outputJSON(cmd.OutOrStdout(), th)
	}
	return printThresholds(cmd.OutOrStdout(), th)
}
