package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/gpu-keepalive/internal/keepalive"
	"github.com/psantana5/gpu-keepalive/internal/procscan"
	"github.com/spf13/cobra"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List running keepalive daemons",
	Long:  `Scans the process table for detached gpukeepalive instances and reports whether the GPU query command is available.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format: table or json")
}

type statusReport struct {
	Command      string          `json:"command"`
	CommandPath  string          `json:"command_path,omitempty"`
	CommandFound bool            `json:"command_found"`
	Daemons      []daemonSummary `json:"daemons"`
}

type daemonSummary struct {
	PID           int       `json:"pid"`
	CommandLine   string    `json:"command_line"`
	StartedAt     time.Time `json:"started_at"`
	Uptime        string    `json:"uptime"`
	SessionLeader bool      `json:"session_leader"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	daemons, err := procscan.NewScanner("").Find(cmd.Context())
	if err != nil {
		return err
	}

	report := buildStatus(cfg.Command, daemons, time.Now())
	if statusOutput == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	if report.CommandFound {
		fmt.Printf("Query command: %s (%s)\n", report.Command, report.CommandPath)
	} else {
		fmt.Printf("Query command: %s (not found on PATH)\n", report.Command)
	}

	if len(report.Daemons) == 0 {
		fmt.Println("No keepalive daemon running.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("PID", "Started", "Uptime", "Session Leader", "Command")
	for _, d := range report.Daemons {
		table.Append([]string{
			fmt.Sprintf("%d", d.PID),
			d.StartedAt.Format("2006-01-02 15:04:05"),
			d.Uptime,
			boolToYesNo(d.SessionLeader),
			d.CommandLine,
		})
	}
	return table.Render()
}

func buildStatus(command string, daemons []procscan.Daemon, now time.Time) statusReport {
	report := statusReport{Command: command, Daemons: []daemonSummary{}}
	report.CommandPath, report.CommandFound = keepalive.Probe(command)
	for _, d := range daemons {
		report.Daemons = append(report.Daemons, daemonSummary{
			PID:           d.PID,
			CommandLine:   strings.Join(d.CommandLine, " "),
			StartedAt:     d.StartTime,
			Uptime:        d.Uptime(now).String(),
			SessionLeader: d.SessionLeader,
		})
	}
	return report
}

func boolToYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
