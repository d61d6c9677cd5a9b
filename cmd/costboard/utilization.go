package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/formatter"
)

func newUtilizationCmd(configPath *string) *cobra.Command {
	var (
		window string
		output string
	)

	cmd := &cobra.Command{
		Use:   "utilization INSTANCE_ID",
		Short: "Print the CPU utilization timeline of one instance",
		Example: `  costboard utilization i-0abc123def4567890
  costboard utilization i-0abc123def4567890 --window 7d --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := models.ParseUtilizationWindow(window)
			if err != nil {
				return err
			}
			if output != "table" && output != "json" {
				return fmt.Errorf("invalid --output %q (want table or json)", output)
			}

			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			timeline, err := a.aggregator.Timeline(cmd.Context(), args[0], w)
			if err != nil {
				return fmt.Errorf("error reading utilization (%s): %w", models.ErrorKind(err), err)
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				return formatter.PrintJSON(out, timeline)
			}
			formatter.PrintTimeline(out, timeline)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&window, "window", "w", string(models.DefaultUtilizationWindow), "time window: 1h, 24h or 7d")
	flags.StringVarP(&output, "output", "o", "table", "output format: table or json")

	_ = cmd.RegisterFlagCompletionFunc("window", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		windows := make([]string, len(models.UtilizationWindows))
		for i, w := range models.UtilizationWindows {
			windows[i] = string(w)
		}
		return windows, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
