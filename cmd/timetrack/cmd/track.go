package cmd

import (
	"errors"
	"fmt"

	"github.com/psantana5/gpu-keepalive/internal/timetrack"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <category> <project> [tags...]",
	Short: "Start tracking time",
	Long:  `Starts a session for category/project. A running session is stopped first.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the running session",
	Args:  cobra.NoArgs,
	RunE:  runCurrent,
}

func init() {
	rootCmd.AddCommand(startCmd, stopCmd, currentCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	t := now()
	started, stopped, err := store().Start(args[0], args[1], args[2:], t)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if stopped != nil {
		fmt.Fprintf(out, "Stopped %s/%s (%s)\n", stopped.Category, stopped.Project,
			timetrack.FormatDuration(stopped.Elapsed(t)))
	}
	fmt.Fprintf(out, "Started %s/%s\n", started.Category, started.Project)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	t := now()
	stopped, err := store().Stop(t)
	if errors.Is(err, timetrack.ErrNotTracking) {
		fmt.Fprintln(cmd.OutOrStdout(), "Not tracking anything.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s/%s (%s)\n", stopped.Category, stopped.Project,
		timetrack.FormatDuration(stopped.Elapsed(t)))
	return nil
}

func runCurrent(cmd *cobra.Command, args []string) error {
	cur, err := store().Current()
	if err != nil {
		return err
	}
	if cur == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not tracking anything.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %s", cur.Category, cur.Project,
		timetrack.FormatDuration(cur.Elapsed(now())))
	for _, tag := range cur.Tags {
		fmt.Fprintf(cmd.OutOrStdout(), " #%s", tag)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
