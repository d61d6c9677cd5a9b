package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/younsl/costboard/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "costboard",
		Short: "EC2 cost and utilization dashboard",
		Long: `costboard joins EC2 inventory, CloudWatch CPU utilization and
Cost Explorer billing into a single dashboard of instances, waste levels
and daily cost trends.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newCollectCmd(&configPath),
		newUtilizationCmd(&configPath),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	}
}
