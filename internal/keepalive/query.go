package keepalive

import (
	"context"
	"fmt"
	"os/exec"
)

// DefaultCommand is the GPU status query run on every tick
const DefaultCommand = "nvidia-smi"

// Querier runs one GPU status query.
// The loop never looks at the returned error beyond counting it.
type Querier interface {
	Query(ctx context.Context) error
}

// QuerierFunc adapts a function to Querier
type QuerierFunc func(ctx context.Context) error

// Query calls f(ctx)
func (f QuerierFunc) Query(ctx context.Context) error {
	return f(ctx)
}

// ExecQuery runs an external command with its output discarded
type ExecQuery struct {
	Command string
	Args    []string
}

// NewExecQuery returns a query for command, defaulting to nvidia-smi
func NewExecQuery(command string, args []string) *ExecQuery {
	if command == "" {
		command = DefaultCommand
	}
	return &ExecQuery{Command: command, Args: args}
}

// Query runs the command to completion.
// Stdout and Stderr stay nil so both go to the null device.
func (q *ExecQuery) Query(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, q.Command, q.Args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", q.Command, err)
	}
	return nil
}

// Probe reports whether command can be found on PATH and where
func Probe(command string) (string, bool) {
	if command == "" {
		command = DefaultCommand
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", false
	}
	return path, true
}
