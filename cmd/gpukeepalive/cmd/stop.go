package cmd

import (
	"fmt"

	"github.com/psantana5/gpu-keepalive/internal/procscan"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Terminate running keepalive daemons",
	Long:  `Sends SIGTERM to every detached gpukeepalive instance owned by a visible process.`,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	daemons, err := procscan.NewScanner("").Find(cmd.Context())
	if err != nil {
		return err
	}

	if len(daemons) == 0 {
		fmt.Println("No keepalive daemon running.")
		return nil
	}

	var failed int
	for _, d := range daemons {
		if err := procscan.Terminate(cmd.Context(), d.PID); err != nil {
			fmt.Printf("✗ %v\n", err)
			failed++
			continue
		}
		fmt.Printf("✓ Stopped PID %d\n", d.PID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d daemons could not be stopped", failed, len(daemons))
	}
	return nil
}
