// -- cmd/suite.go --
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/suite"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the suites in the suite document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return exitWith(a.runner.List(cmd.OutOrStdout()))
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <suite>",
		Short: "Runs one suite by name",
		Long: `Runs the named <test> entry of the suite document. Without a name the
available suites are listed and the command fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				a.runner.List(cmd.OutOrStdout())
				return exitWith(1)
			}
			return exitWith(a.runner.RunSuite(cmd.Context(), args[0]))
		},
	}
}

func newGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "group <group>",
		Short: "Runs every test case tagged with a group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				a.logger.Error("Specify group name")
				return exitWith(1)
			}
			return exitWith(a.runner.RunGroup(cmd.Context(), args[0]))
		},
	}
}

func newParallelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parallel [workers]",
		Short: fmt.Sprintf("Runs everything in parallel (default %d workers)", suite.DefaultWorkers),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			workers := suite.DefaultWorkers
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					a.logger.Error("Invalid worker count", zap.String("workers", args[0]))
					return exitWith(1)
				}
				workers = n
			}
			return exitWith(a.runner.RunParallel(cmd.Context(), workers))
		},
	}
}
