package procscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/psantana5/gpu-keepalive/internal/daemon"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// Daemon is a running keepalive process
type Daemon struct {
	PID           int
	Command       string
	CommandLine   []string
	StartTime     time.Time
	SessionLeader bool
	// Marked is true when the guard marker was readable in its environment
	Marked bool
}

// Uptime returns how long the daemon has been running
func (d Daemon) Uptime(now time.Time) time.Duration {
	if d.StartTime.IsZero() {
		return 0
	}
	return now.Sub(d.StartTime).Truncate(time.Second)
}

// Detached reports whether the process looks like a detached keepalive
func (d Daemon) Detached() bool {
	return d.Marked || d.SessionLeader
}

// Scanner finds keepalive daemons by executable name
type Scanner struct {
	name   string
	ownPID int
}

// NewScanner creates a scanner for processes named name.
// An empty name means the base name of the running executable.
func NewScanner(name string) *Scanner {
	if name == "" {
		if exe, err := os.Executable(); err == nil {
			name = filepath.Base(exe)
		}
	}
	return &Scanner{
		name:   name,
		ownPID: os.Getpid(),
	}
}

// Find returns detached daemons sorted by PID
func (s *Scanner) Find(ctx context.Context) ([]Daemon, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var daemons []Daemon
	for _, p := range procs {
		if int(p.Pid) == s.ownPID {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil || name != s.name {
			continue // process may have exited
		}

		d := Daemon{
			PID:     int(p.Pid),
			Command: name,
		}
		if cmdline, err := p.CmdlineSliceWithContext(ctx); err == nil {
			d.CommandLine = cmdline
		}
		if created, err := p.CreateTimeWithContext(ctx); err == nil {
			d.StartTime = time.UnixMilli(created)
		}
		if env, err := p.EnvironWithContext(ctx); err == nil {
			d.Marked = daemon.IsDetached(env)
		}
		if sid, err := unix.Getsid(d.PID); err == nil {
			d.SessionLeader = sid == d.PID
		}

		if d.Detached() {
			daemons = append(daemons, d)
		}
	}

	sort.Slice(daemons, func(i, j int) bool { return daemons[i].PID < daemons[j].PID })

	return daemons, nil
}

// Terminate sends SIGTERM to pid
func Terminate(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("process %d: %w", pid, err)
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("failed to terminate %d: %w", pid, err)
	}
	return nil
}
