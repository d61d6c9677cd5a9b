package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/formatter"
	"github.com/younsl/costboard/pkg/pipeline"
	"github.com/younsl/costboard/pkg/pricing"
	"github.com/younsl/costboard/pkg/utils"
)

type collectOptions struct {
	regions       []string
	instanceTypes []string
	wastes        []string
	orderBy       string
	desc          bool
	output        string
	lookbackDays  int
	groupBy       string
}

// validate rejects flag values that would otherwise only surface as an
// empty or unsorted table after a full collection
func (o collectOptions) validate() error {
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("invalid --output %q (want table or json)", o.output)
	}
	for _, w := range o.wastes {
		if _, err := models.ParseWasteLevel(w); err != nil {
			return fmt.Errorf("invalid --waste: %w", err)
		}
	}
	order := models.SortAsc
	if o.desc {
		order = models.SortDesc
	}
	if err := pipeline.ValidateSort(o.orderBy, order); err != nil {
		return fmt.Errorf("invalid --sort: %w", err)
	}
	return nil
}

// startCollectSpinner creates and starts a spinner while upstream data is fetched
func startCollectSpinner(out io.Writer) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " Collecting inventory, utilization and billing ..."
	s.Start()
	return s
}

func newCollectCmd(configPath *string) *cobra.Command {
	var opts collectOptions

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Aggregate once and print the dashboard",
		Example: `  costboard collect
  costboard collect --region us-east-1 --waste High --sort costPerHour --desc
  costboard collect --output json --lookback 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}

			start := time.Now()
			var s *spinner.Spinner
			if opts.output == "table" {
				s = startCollectSpinner(os.Stderr)
			}

			dashboard, err := a.aggregator.Aggregate(ctx, pipeline.Request{
				LookbackDays: opts.lookbackDays,
				GroupBy:      opts.groupBy,
			})
			if s != nil {
				s.Stop()
			}
			if err != nil {
				return fmt.Errorf("error collecting dashboard (%s): %w", models.ErrorKind(err), err)
			}

			order := models.SortAsc
			if opts.desc {
				order = models.SortDesc
			}
			view, err := pipeline.BuildView(dashboard, models.ViewRequest{
				Filters: models.FilterState{
					Region:       opts.regions,
					InstanceType: opts.instanceTypes,
					Waste:        opts.wastes,
				},
				OrderBy: opts.orderBy,
				Order:   order,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				return formatter.PrintJSON(out, view)
			}

			formatter.PrintTimestamp(out, start, time.Since(start))
			formatter.PrintInstancesTable(out, view.Instances)
			formatter.PrintWasteSummary(out, view.Instances)
			formatter.PrintCostBreakdown(out, view.CostData)
			formatter.PrintTrend(out, view.TrendData, view.Spikes)
			if r, ok := a.resolver.(*pricing.APIResolver); ok {
				formatter.PrintPricingStats(out, r.Stats().Snapshot())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.regions, "region", "r", nil, "only show these regions (repeatable)")
	flags.StringSliceVarP(&opts.instanceTypes, "type", "t", nil, "only show these instance types (repeatable)")
	flags.StringSliceVarP(&opts.wastes, "waste", "w", nil, "only show these waste levels: Low, Medium, High (repeatable)")
	flags.StringVarP(&opts.orderBy, "sort", "s", pipeline.DefaultSortColumn, fmt.Sprintf("sort column %v", pipeline.SortColumns()))
	flags.BoolVar(&opts.desc, "desc", false, "sort in descending order")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	flags.IntVar(&opts.lookbackDays, "lookback", 0, "billing lookback in days (default from config)")
	flags.StringVar(&opts.groupBy, "group-by", "", "cost explorer dimension to group billing by (default from config)")

	_ = cmd.RegisterFlagCompletionFunc("region", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return utils.KnownRegions(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("waste", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"Low", "Medium", "High"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("sort", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return pipeline.SortColumns(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
